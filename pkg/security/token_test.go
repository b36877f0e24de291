package security

import "testing"

func TestNewSessionToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := NewSessionToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(token) != 43 {
			t.Fatalf("expected 43-char token, got %d (%s)", len(token), token)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = struct{}{}
	}
}
