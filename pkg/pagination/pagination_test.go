package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{10, 10},
		{MaxLimit, MaxLimit},
		{MaxLimit + 50, MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("LimitWithBuffer(10) = %d, want 11", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{
		CreatedAt: time.Date(2026, 1, 15, 9, 30, 0, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	token := EncodeCursor(original)
	parsed, err := ParseCursor(token)
	if err != nil {
		t.Fatalf("ParseCursor() error: %v", err)
	}
	if !parsed.CreatedAt.Equal(original.CreatedAt) {
		t.Fatalf("created_at mismatch: %s vs %s", parsed.CreatedAt, original.CreatedAt)
	}
	if parsed.ID != original.ID {
		t.Fatalf("id mismatch: %s vs %s", parsed.ID, original.ID)
	}
}

func TestParseCursorEmptyMeansFirstPage(t *testing.T) {
	cursor, err := ParseCursor("  ")
	if err != nil {
		t.Fatalf("ParseCursor() error: %v", err)
	}
	if cursor != nil {
		t.Fatalf("expected nil cursor for blank token")
	}
}

func TestParseCursorRejectsMalformedTokens(t *testing.T) {
	for _, token := range []string{
		"not base64 !!",
		"bm8tc2VwYXJhdG9y",      // decodes without the separator
		"bm90LWEtdGltZXxhYmM",   // bad timestamp
	} {
		if _, err := ParseCursor(token); err == nil {
			t.Fatalf("expected error for token %q", token)
		}
	}
}
