package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.HandleError(w, jwt.ErrInvalidToken)
			return
		}

		if !claims.IsAdmin {
			response.HandleError(w, jwt.ErrAdminRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
