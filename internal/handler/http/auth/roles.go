package auth

import (
	"slices"
	"strings"
)

// Roles carried in JWT claims. Admin owns the compose surface; viewer is
// read-only and only matters for members-only deployments that narrow
// public_endpoints in security.yaml (the reading surface is public by
// default).
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Permission is the set of HTTP methods and path patterns a role may use.
// Patterns ending in "/*" match the base path and everything under it;
// anything else is an exact match.
type Permission struct {
	AllowedMethods []string
	AllowedPaths   []string
}

// RolePermissions maps each role to what it may call. OPTIONS appears in
// every role so CORS preflight is never rejected on authorization.
var RolePermissions = map[string]Permission{
	RoleAdmin: {
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedPaths:   []string{"/*"},
	},
	RoleViewer: {
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedPaths: []string{
			"/",
			"/archive",
			"/index",
			"/feed",
			"/entry/*",
			"/about",
			"/swagger/*",
		},
	},
}

// checkRolePermission reports whether role may issue method against path.
// Unknown and empty roles are denied outright.
func checkRolePermission(role, method, path string) bool {
	perm, ok := RolePermissions[role]
	if !ok {
		return false
	}
	if !slices.Contains(perm.AllowedMethods, method) {
		return false
	}
	return matchesPathPattern(path, perm.AllowedPaths)
}

// matchesPathPattern reports whether path matches any pattern. A trailing
// "/*" matches the base path and its subtree but not lexical extensions,
// so "/entry/*" covers "/entry" and "/entry/hello-world" but never
// "/entryway".
func matchesPathPattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "/*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == pattern {
			return true
		}
	}
	return false
}
