// Package auth verifies caller identity tokens and decides admin access.
package auth

import (
	"strings"

	"github.com/pavelanni/florafauna/internal/model"
)

// AllowList is a set of normalized email addresses.
type AllowList map[string]struct{}

// ParseAllowList reads a comma separated list of emails. Entries are trimmed
// and lower-cased; empty entries are dropped.
func ParseAllowList(csv string) AllowList {
	list := AllowList{}
	for _, e := range strings.Split(csv, ",") {
		if e = model.NormalizeEmail(e); e != "" {
			list[e] = struct{}{}
		}
	}
	return list
}

// Contains reports whether email is on the list, ignoring case.
func (l AllowList) Contains(email string) bool {
	_, ok := l[model.NormalizeEmail(email)]
	return ok
}

// Access decides what an identity may do.
type Access struct {
	admins AllowList
}

// NewAccess returns an Access check backed by the given admin allow-list.
func NewAccess(admins AllowList) *Access {
	if admins == nil {
		admins = AllowList{}
	}
	return &Access{admins: admins}
}

// IsAdmin reports whether id may moderate. The role metadata wins; otherwise a
// verified email on the allow-list grants access.
func (a *Access) IsAdmin(id *model.Identity) bool {
	if id == nil {
		return false
	}
	if role, ok := id.Metadata.Role(); ok && role == string(model.UserRoleAdmin) {
		return true
	}
	return id.EmailVerified && id.Email != "" && a.admins.Contains(id.Email)
}
