package identity

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultPrefix is prepended to every identity to form its local username.
const DefaultPrefix = "gh-"

// GitHub logins are mixed-case alphanumerics and dashes; Debian and Ubuntu
// useradd accept that charset. useradd caps names at 32 characters.
var usernameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]{0,31}$`)

// ValidUsername accepts letters, digits, underscore and dash, starting with
// a letter or underscore, at most 32 characters.
func ValidUsername(u string) bool {
	return usernameRe.MatchString(u)
}

// LocalUsername derives the local account name for an identity.
func LocalUsername(prefix, id string) string {
	return prefix + id
}

// Managed reports whether name carries the managed prefix.
func Managed(prefix, name string) bool {
	return prefix != "" && strings.HasPrefix(name, prefix) && len(name) > len(prefix)
}

// Normalize de-duplicates and sorts a desired set. Empty names are rejected.
func Normalize(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("empty identity in desired set")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
