package enums

import "fmt"

// BreakdownKind labels the origin of a single breakdown line in a quote.
type BreakdownKind string

const (
	BreakdownKindBase      BreakdownKind = "base"
	BreakdownKindQuestion  BreakdownKind = "question"
	BreakdownKindDefect    BreakdownKind = "defect"
	BreakdownKindAccessory BreakdownKind = "accessory"
	BreakdownKindRule      BreakdownKind = "rule"
)

var validBreakdownKinds = []BreakdownKind{
	BreakdownKindBase,
	BreakdownKindQuestion,
	BreakdownKindDefect,
	BreakdownKindAccessory,
	BreakdownKindRule,
}

// IsValid reports whether the value is a known BreakdownKind.
func (k BreakdownKind) IsValid() bool {
	for _, candidate := range validBreakdownKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseBreakdownKind converts raw input into a BreakdownKind.
func ParseBreakdownKind(value string) (BreakdownKind, error) {
	for _, candidate := range validBreakdownKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid breakdown kind %q", value)
}
