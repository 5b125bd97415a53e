package httpx

import (
	"context"
	"net/http"
	"strings"
)

// tokenHeader carries the raw session token.
const tokenHeader = "auth-token"

type authContextKey string

type authInfo struct {
	UserID string
	Token  string
}

const contextKeyAuth authContextKey = "compass-auth-info"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth ensures the request carries a valid auth-token before invoking the handler.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth validates the auth-token header and enriches the context.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, authInfo, bool) {
	token := strings.TrimSpace(req.Header.Get(tokenHeader))
	if token == "" {
		r.logger.Warn("auth token missing", "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
		return req.Context(), authInfo{}, false
	}
	userID, err := r.auth.Authenticate(token)
	if err != nil {
		r.logger.Warn("token validation failed", "error", err, "path", req.URL.Path)
		writeAuthError(w, err)
		return req.Context(), authInfo{}, false
	}
	info := authInfo{UserID: userID, Token: token}
	ctx := context.WithValue(req.Context(), contextKeyAuth, info)
	return ctx, info, true
}

// authInfoFromContext extracts auth metadata from context.
func authInfoFromContext(ctx context.Context) (authInfo, bool) {
	value := ctx.Value(contextKeyAuth)
	if value == nil {
		return authInfo{}, false
	}
	info, ok := value.(authInfo)
	return info, ok
}

