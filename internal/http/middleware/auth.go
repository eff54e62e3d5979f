package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/http/respond"
)

// Context keys set by WithJWT
const (
	PrincipalIDKey   = "principal_id"
	PrincipalRoleKey = "principal_role"
	PrincipalKey     = "principal"
	TokenKey         = "token"
)

// AuthMW verifies bearer tokens through the auth service
type AuthMW struct {
	authSvc domain.AuthService
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(authSvc domain.AuthService) *AuthMW {
	return &AuthMW{authSvc: authSvc}
}

// WithJWT rejects requests without a token that verifies against a live,
// active principal, and stores that principal on the context.
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			respond.Abort(c, domain.NewAuthError(domain.KindMalformedToken, "authorization header required"))
			return
		}

		profile, err := mw.authSvc.VerifyToken(c.Request.Context(), token)
		if err != nil {
			respond.Abort(c, err)
			return
		}

		c.Set(PrincipalIDKey, profile.ID)
		c.Set(PrincipalRoleKey, string(profile.Role))
		c.Set(PrincipalKey, profile)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
