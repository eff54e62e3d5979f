package httpx

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/http/handlers"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/http/middleware"
)

// Deps are the collaborators the router mounts.
type Deps struct {
	Auth      *handlers.AuthHandlers
	Policies  *handlers.PolicyHandlers
	JWT       *middleware.AuthMW
	Casbin    middleware.CasbinMiddleware
	RateLimit *middleware.RateLimitMW

	// ResetRateLimit guards reset-code submission; RateLimit is used when nil.
	ResetRateLimit *middleware.RateLimitMW
	Log            *slog.Logger
}

func BuildRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics(), middleware.RequestLogger(d.Log))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/auth")

	// one credential group per role: /api/auth/customers, /api/auth/vendors, ...
	limited := d.RateLimit.Limit()
	resetLimited := limited
	if d.ResetRateLimit != nil {
		resetLimited = d.ResetRateLimit.Limit()
	}
	for _, role := range domain.Roles() {
		desc, _ := domain.DescriptorFor(role)
		g := api.Group("/" + desc.PathSegment)
		g.POST("/signup", limited, d.Auth.Signup(role))
		g.POST("/login", limited, d.Auth.Login(role))
		g.POST("/reset-token", limited, d.Auth.RequestReset(role))
		g.PATCH("/forget-password", resetLimited, d.Auth.ResetPassword(role))
	}
	api.POST("/customers/social/signup", limited, d.Auth.SocialSignup)
	api.POST("/customers/social/login", limited, d.Auth.SocialLogin)

	api.POST("/verify", d.Auth.Verify)
	api.GET("/profile", d.Auth.GetProfile)
	api.PATCH("/profile", d.Auth.UpdateProfile)
	api.PATCH("/password", limited, d.Auth.ChangePassword)
	api.POST("/deactivate", d.Auth.Deactivate)

	guarded := api.Group("").Use(d.JWT.WithJWT(), d.Casbin.Enforce())
	guarded.DELETE("/customers/:id", d.Auth.PurgeCustomer)

	adm := api.Group("/admin").Use(d.JWT.WithJWT(), d.Casbin.Enforce())
	adm.GET("/policies", d.Policies.List)
	adm.POST("/policies", d.Policies.Add)
	adm.DELETE("/policies", d.Policies.Remove)

	return r
}
