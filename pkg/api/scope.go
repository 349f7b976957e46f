package api

import "fmt"

// ScopeKind selects between the two library namespaces.
type ScopeKind int

const (
	scopeNone ScopeKind = iota
	UserScopeKind
	GroupScopeKind
)

// Scope is the user-library or group-library namespace scoped requests are
// issued under. Configuration resolution guarantees exactly one is selected
// per invocation.
type Scope struct {
	Kind ScopeKind
	ID   int
}

// UserScope returns the scope for a personal library.
func UserScope(id int) Scope { return Scope{Kind: UserScopeKind, ID: id} }

// GroupScope returns the scope for a group library.
func GroupScope(id int) Scope { return Scope{Kind: GroupScopeKind, ID: id} }

// Valid reports whether a scope was selected.
func (s Scope) Valid() bool { return s.Kind != scopeNone }

// Prefix returns the URL path prefix every scoped request starts with.
func (s Scope) Prefix() string {
	switch s.Kind {
	case UserScopeKind:
		return fmt.Sprintf("/users/%d", s.ID)
	case GroupScopeKind:
		return fmt.Sprintf("/groups/%d", s.ID)
	default:
		return ""
	}
}
