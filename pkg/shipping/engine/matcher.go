package engine

import (
	"regexp"
	"strings"

	"parcelhq/meridian/pkg/shipping"
)

// MatchesCondition reports whether the merged order+item record
// satisfies the condition. It is a total function: a missing field is
// treated as the empty string, an invalid regular expression never
// matches, and an unrecognized operator never matches.
func MatchesCondition(cond shipping.MatchCondition, record map[string]string) bool {
	fieldValue := record[cond.Field]
	matchValue := cond.Value

	if !cond.CaseSensitive {
		fieldValue = strings.ToLower(fieldValue)
		matchValue = strings.ToLower(matchValue)
	}

	switch cond.Operator {
	case shipping.OperatorContains:
		return strings.Contains(fieldValue, matchValue)

	case shipping.OperatorEquals:
		return fieldValue == matchValue

	case shipping.OperatorStartsWith:
		return strings.HasPrefix(fieldValue, matchValue)

	case shipping.OperatorEndsWith:
		return strings.HasSuffix(fieldValue, matchValue)

	case shipping.OperatorRegex:
		pattern := cond.Value
		if !cond.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(record[cond.Field])

	default:
		return false
	}
}
