// Package sql provides SQL identifier validation and injection screening.
package sql

import (
	"sort"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on an attribute value.
type InjectionCheckResult struct {
	Attribute   string // Name of the attribute that failed the check
	Fingerprint string // libinjection fingerprint of the detected pattern
}

// CheckValueForInjection uses libinjection to detect SQL injection patterns
// in a single attribute value.
//
// Only string values are checked; numbers, booleans and other types cannot
// carry an injection payload and return nil.
//
// Example:
//
//	CheckValueForInjection("email", "user@example.com")  // nil
//	CheckValueForInjection("name", "'; DROP TABLE users--")
//	// &InjectionCheckResult{Attribute: "name", Fingerprint: "s&1c"}
func CheckValueForInjection(attribute string, value any) *InjectionCheckResult {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		Attribute:   attribute,
		Fingerprint: string(fingerprint),
	}
}

// CheckAttributes screens every value of an externally supplied attribute map.
// Results are sorted by attribute name so callers log them deterministically.
func CheckAttributes(attrs map[string]any) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for name, value := range attrs {
		if result := CheckValueForInjection(name, value); result != nil {
			results = append(results, result)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Attribute < results[j].Attribute
	})
	return results
}
