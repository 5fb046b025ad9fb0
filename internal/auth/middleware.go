package auth

import (
	"net/http"
	"strings"

	"github.com/sidedish/sidedish/internal/api"
)

// Middleware validates the Bearer access token and stores the caller's
// identity on the request context via api.WithUserClaims.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.HandleError(w, api.ErrUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				api.HandleError(w, api.ErrUnauthorized)
				return
			}

			claims, err := svc.jwt.ValidateAccessToken(parts[1])
			if err != nil {
				api.HandleError(w, api.ErrInvalidToken)
				return
			}

			ctx := api.WithUserClaims(r.Context(), &api.UserClaims{
				UserID: claims.UserID,
				Handle: claims.Handle,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
