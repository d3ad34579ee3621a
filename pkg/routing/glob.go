// Package routing compiles declarative switch definitions into executable
// routers and evaluates them against in-flight data.
package routing

import "strings"

// GlobMatch matches name against a minimal glob pattern supporting '*' (zero
// or more characters) and '?' (exactly one character). Literals compare
// case-insensitively. The match is anchored: the whole name must be consumed
// by the whole pattern.
func GlobMatch(pattern, name string) bool {
	return globMatch(strings.ToLower(pattern), strings.ToLower(name))
}

// globMatch is recursive backtracking. On '*' it first checks whether the star
// is the final pattern character (in which case it absorbs the rest of the
// name), then tries consuming zero, one, two, ... characters until a trial
// succeeds or the name is exhausted.
func globMatch(pattern, name string) bool {
	if pattern == "" {
		return name == ""
	}

	switch pattern[0] {
	case '*':
		if len(pattern) == 1 {
			return true
		}

		for i := 0; i <= len(name); i++ {
			if globMatch(pattern[1:], name[i:]) {
				return true
			}
		}

		return false
	case '?':
		if name == "" {
			return false
		}

		return globMatch(pattern[1:], name[1:])
	default:
		if name == "" || name[0] != pattern[0] {
			return false
		}

		return globMatch(pattern[1:], name[1:])
	}
}
