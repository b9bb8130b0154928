// Package authz decides whether a protected view may render for the current
// session, and which fallback to produce when it may not.
package authz

import (
	"github.com/fasops-io/fasops/internal/console/identity"
	"github.com/fasops-io/fasops/internal/console/session"
)

// Requirement declares what a protected view demands: at most one of a named
// permission or the admin flag. The zero Requirement admits any authenticated
// identity.
type Requirement struct {
	Permission string
	AdminOnly  bool
}

// Decision is the gate's verdict for one navigation attempt.
type Decision int

const (
	// Authorized: render the requested view.
	Authorized Decision = iota
	// Checking: identity resolution is in flight; show a waiting state.
	Checking
	// Unauthenticated: nobody is logged in; go to login, then come back.
	Unauthenticated
	// Forbidden: the caller is known but not allowed; deny in place.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case Checking:
		return "checking"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	}
	return "unknown"
}

// Outcome pairs the decision with the originally requested view so login can
// return the user there afterward.
type Outcome struct {
	Decision      Decision
	RequestedView string
}

// Gate evaluates requirements against the session and resolved identity.
type Gate struct {
	store    *session.Store
	resolver *identity.Resolver
}

// NewGate constructs a Gate.
func NewGate(store *session.Store, resolver *identity.Resolver) *Gate {
	return &Gate{store: store, resolver: resolver}
}

// Check evaluates a navigation to the named view.
//
// Absent identity always wins over any permission requirement: without a
// token the outcome is Unauthenticated no matter what the view demands.
func (g *Gate) Check(view string, req Requirement) Outcome {
	if _, ok := g.store.Token(); !ok {
		return Outcome{Decision: Unauthenticated, RequestedView: view}
	}

	id, ok := g.resolver.Current()
	if !ok {
		switch g.resolver.State() {
		case identity.StateResolving:
			return Outcome{Decision: Checking, RequestedView: view}
		default:
			// Token present but no identity: resolution failed or never ran.
			return Outcome{Decision: Unauthenticated, RequestedView: view}
		}
	}

	return Outcome{Decision: decide(id, req), RequestedView: view}
}

func decide(id *identity.Identity, req Requirement) Decision {
	switch {
	case req.AdminOnly:
		if id.IsAdmin() {
			return Authorized
		}
		return Forbidden
	case req.Permission != "":
		if id.HasPermission(req.Permission) {
			return Authorized
		}
		return Forbidden
	default:
		// No requirement declared: any authenticated identity passes.
		return Authorized
	}
}
