package middleware

import (
	"net/http"
	"strings"

	"grantgate/internal/jwtauth"
	dErrors "grantgate/pkg/domain-errors"
	"grantgate/pkg/platform/httputil"
	"grantgate/pkg/requestcontext"
)

// RequireAuth verifies the bearer token and stores the caller's identity in
// the request context.
func RequireAuth(jwtSvc *jwtauth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing authorization header"))
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "malformed authorization header"))
				return
			}

			claims, err := jwtSvc.ValidateToken(token)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}

			ctx := requestcontext.WithUserID(r.Context(), claims.UserID)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route to callers whose token carries the admin role.
// It must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestcontext.Role(r.Context()) != "admin" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
