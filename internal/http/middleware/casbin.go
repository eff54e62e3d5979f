package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/config"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/http/respond"
)

// CasbinMiddleware defines the interface for Casbin authorization middleware
type CasbinMiddleware interface {
	Enforce() gin.HandlerFunc
}

// CasbinMW wraps the casbin enforcer and ownership rules for middleware
type CasbinMW struct {
	enforcer domain.CasbinEnforcer
	rules    []config.OwnershipRule
	log      *slog.Logger
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(enforcer domain.CasbinEnforcer, rules []config.OwnershipRule, log *slog.Logger) *CasbinMW {
	return &CasbinMW{enforcer: enforcer, rules: rules, log: log}
}

// Enforce checks the principal's role against the policy, then falls back to
// role_owner when an ownership rule matches the request. Must run after WithJWT.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		principalID := c.GetString(PrincipalIDKey)
		role := c.GetString(PrincipalRoleKey)
		if principalID == "" || role == "" {
			respond.Abort(c, domain.NewAuthError(domain.KindMalformedToken, "principal not found in token"))
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method

		allowed, err := mw.enforcer.Enforce("role_"+role, path, method)
		if err != nil {
			mw.log.ErrorContext(c.Request.Context(), "authorization check failed", "path", path, "error", err)
			respond.Abort(c, domain.ErrInternal("authorization", err))
			return
		}

		if !allowed && mw.isOwner(c, principalID) {
			allowed, err = mw.enforcer.Enforce("role_owner", path, method)
			if err != nil {
				mw.log.ErrorContext(c.Request.Context(), "owner authorization check failed", "path", path, "error", err)
				respond.Abort(c, domain.ErrInternal("authorization", err))
				return
			}
		}

		if !allowed {
			mw.log.InfoContext(c.Request.Context(), "access denied", "principal_id", principalID, "role", role, "method", method, "path", path)
			respond.Abort(c, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}

// isOwner reports whether a rule for this route names the caller's own id.
func (mw *CasbinMW) isOwner(c *gin.Context, principalID string) bool {
	for _, rule := range mw.rules {
		if rule.Path != c.FullPath() || rule.Method != c.Request.Method {
			continue
		}
		if id := extractPrincipalID(c, rule.Source, rule.ParamName); id != "" && id == principalID {
			return true
		}
	}
	return false
}
