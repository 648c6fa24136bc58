// Package reqctx carries per-request identity and correlation data
// through the context chain of a single inbound request.
//
// The request context is never stored in a global: it lives only in the
// context.Context of the request that created it, so concurrent
// requests cannot observe each other's identity.
package reqctx

import (
	"context"
	"time"

	"github.com/confera/auth-service/internal/domain"
	"github.com/google/uuid"
)

type ctxKey struct{}

// RequestContext holds the identity and correlation data of one inbound
// request. Identity fields are empty strings when the request is
// anonymous. User is the cached full record, populated only by the
// store-revalidating auth middleware.
type RequestContext struct {
	CorrelationID string
	Timestamp     time.Time
	UserID        string
	UserEmail     string
	UserRole      domain.Role
	User          *domain.User
}

// New creates an anonymous request context with a fresh correlation id.
func New() *RequestContext {
	return &RequestContext{
		CorrelationID: uuid.New().String(),
		Timestamp:     time.Now(),
	}
}

// SetIdentity records the verified identity on the context and caches
// the full user record.
func (rc *RequestContext) SetIdentity(user *domain.User) {
	rc.UserID = user.ID
	rc.UserEmail = user.Email
	rc.UserRole = user.Role
	rc.User = user
}

// SetClaims records identity from token claims only, without a cached
// user record. Used by the soft context middleware on public routes.
func (rc *RequestContext) SetClaims(claims *domain.TokenClaims) {
	rc.UserID = claims.UserID
	rc.UserEmail = claims.Email
	rc.UserRole = claims.Role
}

// Authenticated reports whether an identity is present.
func (rc *RequestContext) Authenticated() bool {
	return rc.UserID != ""
}

// With returns a child context carrying rc.
func With(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// From extracts the request context, if any.
func From(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return rc, ok
}

// CorrelationID returns the correlation id of the request, or the empty
// string when no request context is present.
func CorrelationID(ctx context.Context) string {
	if rc, ok := From(ctx); ok {
		return rc.CorrelationID
	}
	return ""
}
