package ratelimit

import "strings"

// MatchRule returns the first rule for method and path, trying exact paths before prefixes.
// Returns nil when no rule applies.
func MatchRule(path, method string, rules []Rule) *Rule {
	for i := range rules {
		if rules[i].Method == method && rules[i].Path == path {
			return &rules[i]
		}
	}
	for i := range rules {
		r := &rules[i]
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r
		}
	}
	return nil
}
