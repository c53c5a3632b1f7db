package knowledge

import (
	"strings"
)

// BuildFilter constructs the boolean filter expression scoping a similarity
// search to a project and, optionally, a tag set. Blank tags are dropped;
// the remaining tags keep their supplied order. Single quotes in the project
// code and in every tag are doubled before quoting, which is the only
// escaping the expression grammar needs.
//
//	BuildFilter("acme", nil)              => projectCode == 'acme'
//	BuildFilter("acme", []string{"core"}) => projectCode == 'acme' && tags IN ['core']
func BuildFilter(projectCode string, tags []string) string {
	var sb strings.Builder
	sb.WriteString("projectCode == '")
	sb.WriteString(escapeQuotes(projectCode))
	sb.WriteString("'")

	quoted := make([]string, 0, len(tags))
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		quoted = append(quoted, "'"+escapeQuotes(tag)+"'")
	}
	if len(quoted) == 0 {
		return sb.String()
	}

	sb.WriteString(" && tags IN [")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString("]")
	return sb.String()
}

// markerFilter scopes a search to the marker records of one project.
func markerFilter(projectCode string) string {
	return "type == 'marker' && projectCode == '" + escapeQuotes(projectCode) + "'"
}

func escapeQuotes(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// hasNonBlankTag reports whether tags would contribute a clause to the
// filter expression.
func hasNonBlankTag(tags []string) bool {
	for _, tag := range tags {
		if strings.TrimSpace(tag) != "" {
			return true
		}
	}
	return false
}
