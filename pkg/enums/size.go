package enums

import (
	"fmt"
	"strings"
)

// Size is one of the garment size labels tracked per SKU.
type Size string

const (
	SizeXS  Size = "XS"
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

// AllSizes lists every size in spreadsheet column order.
var AllSizes = []Size{
	SizeXS,
	SizeS,
	SizeM,
	SizeL,
	SizeXL,
	SizeXXL,
}

// String implements fmt.Stringer.
func (s Size) String() string {
	return string(s)
}

// IsValid reports whether the size is recognized.
func (s Size) IsValid() bool {
	for _, candidate := range AllSizes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSize converts a raw string into a Size. Input is matched
// case-insensitively; stored sizes are always uppercase.
func ParseSize(value string) (Size, error) {
	normalized := Size(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid size %q", value)
}

// SizeLabels returns the uppercase labels for message formatting.
func SizeLabels() []string {
	labels := make([]string, 0, len(AllSizes))
	for _, s := range AllSizes {
		labels = append(labels, s.String())
	}
	return labels
}
