package middleware

import (
	"context"
	"net/http"
	"strings"

	"activerse/pkg/auth"
	httputil "activerse/pkg/http"
	"activerse/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const ClaimsKey contextKey = "auth_claims"

// Guard wraps individual admin routes with bearer-token verification.
type Guard struct {
	secret string
	log    *logger.Logger
}

func NewGuard(secret string, log *logger.Logger) *Guard {
	return &Guard{secret: secret, log: log}
}

// Wrap rejects requests without a valid Bearer token and stores the parsed
// claims in the request context for handlers.
func (g *Guard) Wrap(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, err := g.Authenticate(r)
		if err != nil {
			if writeErr := httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
				Error: "Authentication required",
			}); writeErr != nil {
				g.log.Error("failed to write JSON response", "middleware", "Guard", "error", writeErr)
			}
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next(w, r.WithContext(ctx), ps)
	}
}

// Authenticate extracts and verifies the Bearer token without rejecting the
// request; callers that render their own unauthenticated response use this.
func (g *Guard) Authenticate(r *http.Request) (*auth.Claims, error) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return nil, http.ErrNoCookie
	}
	return auth.ParseToken(g.secret, tokenString)
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok
}
