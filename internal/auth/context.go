package auth

import "context"

type userContextKey struct{}
type tokenContextKey struct{}

type userInfo struct {
	id    string
	roles []string
}

// ContextWithUser attaches the authenticated user to the context.
func ContextWithUser(ctx context.Context, userID string, roles []string) context.Context {
	return context.WithValue(ctx, userContextKey{}, &userInfo{id: userID, roles: roles})
}

// UserIDFromContext extracts the authenticated user id from the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(userContextKey{}).(*userInfo)
	if !ok || v == nil || v.id == "" {
		return "", false
	}
	return v.id, true
}

// RolesFromContext returns the roles carried by the authenticated user.
func RolesFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	v, ok := ctx.Value(userContextKey{}).(*userInfo)
	if !ok || v == nil {
		return nil
	}
	return v.roles
}

// ContextWithToken stores the raw bearer token inside the context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the bearer token if it was previously attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
