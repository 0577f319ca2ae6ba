// internal/app/system/normalize/normalize.go
//
// Package normalize contains small input canonicalizers applied before
// values are stored or compared.
package normalize

import "strings"

// Email trims whitespace and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Linkblue derives a university login alias from a UPN-style identifier
// by stripping the given email suffix (e.g. "@uky.edu") and lowercasing.
// A UPN that does not carry the suffix yields "": guest and external
// accounts have no alias, and treating their UPN as one would feed the
// account-linking lookup and the unique alias index a foreign value.
func Linkblue(upn, suffix string) string {
	if suffix == "" {
		return ""
	}
	upn = strings.ToLower(strings.TrimSpace(upn))
	alias, found := strings.CutSuffix(upn, strings.ToLower(suffix))
	if !found {
		return ""
	}
	return alias
}
