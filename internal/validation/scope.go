// Package validation valida nombres de scope.
package validation

import (
	"regexp"
	"strings"
)

// Un scope es minúsculas, empieza y termina en [a-z0-9] y en el medio admite
// [a-z0-9:_.-]. Largo 1..64. Ej: "gatekeeper.account.create".
var scopeNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9:_\.-]{0,62}[a-z0-9])?$`)

// ValidScopeName indica si name es un scope válido.
func ValidScopeName(name string) bool {
	return scopeNameRe.MatchString(name)
}

// NormalizeScopes recorta espacios, descarta vacíos y duplicados y valida
// cada nombre. Si alguno es inválido lo retorna como bad.
func NormalizeScopes(in []string) (out []string, bad string) {
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !ValidScopeName(s) {
			return nil, s
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, ""
}
