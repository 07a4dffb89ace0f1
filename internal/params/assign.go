package params

import (
	"fmt"
	"strings"

	"github.com/vvka-141/ddlstore/internal/record"
)

// ParseAssignments converts a slice of "column=value" strings into a record.
// Values stay strings; the type directory decides how they are stored.
//
// Example:
//
//	rec, err := ParseAssignments([]string{"Email=a@x.com", "Name=Ann"})
//	// Returns: record.Map{"Email": "a@x.com", "Name": "Ann"}
func ParseAssignments(pairs []string) (record.Map, error) {
	result := make(record.Map, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("value %q is not in column=value format (example: --set Email=a@x.com)", pair)
		}

		if key == "" {
			return nil, fmt.Errorf("value has empty column name: %q", pair)
		}

		result[key] = value
	}

	return result, nil
}
