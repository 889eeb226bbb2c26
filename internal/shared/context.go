package shared

import (
	"context"
	"net/http"
)

// Identity is the caller as asserted by the upstream authentication layer.
type Identity struct {
	OrganizationID string
	UserID         string
	UserName       string
}

// Headers carrying the identity.
const (
	HeaderOrganizationID = "X-Organization-ID"
	HeaderUserID         = "X-User-ID"
	HeaderUserName       = "X-User-Name"
)

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok && id.OrganizationID != ""
}

// IdentityFromRequest reads the identity headers.
func IdentityFromRequest(r *http.Request) Identity {
	return Identity{
		OrganizationID: r.Header.Get(HeaderOrganizationID),
		UserID:         r.Header.Get(HeaderUserID),
		UserName:       r.Header.Get(HeaderUserName),
	}
}
