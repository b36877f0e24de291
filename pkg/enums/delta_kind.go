package enums

import "fmt"

// DeltaKind distinguishes how a price adjustment value is interpreted.
type DeltaKind string

const (
	DeltaKindAbs     DeltaKind = "abs"
	DeltaKindPercent DeltaKind = "percent"
)

var validDeltaKinds = []DeltaKind{
	DeltaKindAbs,
	DeltaKindPercent,
}

// IsValid reports whether the value is a known DeltaKind.
func (k DeltaKind) IsValid() bool {
	for _, candidate := range validDeltaKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseDeltaKind converts raw input into a DeltaKind.
func ParseDeltaKind(value string) (DeltaKind, error) {
	for _, candidate := range validDeltaKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delta kind %q", value)
}
