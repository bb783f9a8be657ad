// Package util tiene helpers chicos sin dependencias del dominio.
package util

import "strings"

// MaskEmail oculta un email para logs: "john.doe@test.me" -> "j…@t….me".
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		return Mask(s)
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	parts := strings.Split(dom, ".")
	if len(parts[0]) > 1 {
		parts[0] = parts[0][:1] + "…"
	}
	return user + "@" + strings.Join(parts, ".")
}

// Mask deja visibles el primer y el último caracter de s.
func Mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 3:
		return "***"
	}
	return s[:1] + "…" + s[len(s)-1:]
}
