package context

import (
	"context"

	"github.com/mkrupp/homecase-todo/internal/domain"
)

const contextKeyUser = contextKey("user")

// UserFromContext extracts the authenticated user from the context.
// Returns the user and true if present, or nil and false for anonymous requests.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKeyUser).(*domain.User)

	return user, ok && user != nil
}

// WithUser creates a new context carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKeyUser, user)
}
