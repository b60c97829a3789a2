package guardrail

import "regexp"

// RegexBlockFilter returns a ContentFilter that blocks (ok=false) when
// pattern matches, unless replacement is non-nil, in which case matches are
// substituted instead.
func RegexBlockFilter(name string, pattern *regexp.Regexp, replacement *string) ContentFilter {
	return ContentFilter{
		Name: name,
		Filter: func(content string) (string, bool) {
			if !pattern.MatchString(content) {
				return content, true
			}
			if replacement == nil {
				return "", false
			}
			return pattern.ReplaceAllString(content, *replacement), true
		},
	}
}
