package auth

import "context"

type ctxKeyIdentity struct{}
type ctxKeyUsername struct{}

// Identity is the verified caller.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// WithIdentity injects a verified identity into ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, id)
}

// IdentityFromContext returns the identity set by RequireUser.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKeyIdentity{}).(Identity)
	return v, ok
}

// WithUserID injects a bare user id into context. Useful for testing.
func WithUserID(ctx context.Context, uid string) context.Context {
	return WithIdentity(ctx, Identity{UserID: uid})
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.UserID == "" {
		return "", false
	}
	return id.UserID, true
}

// WithUsername attaches the caller's profile username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKeyUsername{}, username)
}

func UsernameFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUsername{}).(string)
	return v, ok && v != ""
}
