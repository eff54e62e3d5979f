package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/config"
	httpx "github.com/ultimatefaloe/59Minutes-Backend/internal/http"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/http/handlers"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/http/middleware"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/infrastructure/auth"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/infrastructure/database"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/infrastructure/identity"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/infrastructure/messaging"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/infrastructure/notifications"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/infrastructure/repositories"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Log    *slog.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Enforcer    *casbin.Enforcer
	Publisher   *messaging.NATSPublisher

	// Repositories
	Store      domain.PrincipalStore
	RateLimits domain.RateLimitRepository

	// Services
	PasswordSvc     domain.PasswordService
	TokenSvc        domain.TokenService
	ResetCodeSvc    domain.ResetCodeService
	NotificationSvc domain.NotificationService
	IdentitySvc     domain.IdentityVerifier
	AuditLogger     domain.AuditLogger
	AuthSvc         domain.AuthService
	PolicySvc       domain.PolicyService
}

// Option overrides a collaborator before the services are built.
type Option func(*Container)

// WithNotificationService replaces the SMTP/Twilio notifier.
func WithNotificationService(n domain.NotificationService) Option {
	return func(c *Container) { c.NotificationSvc = n }
}

// WithIdentityVerifier replaces the Firebase verifier.
func WithIdentityVerifier(v domain.IdentityVerifier) Option {
	return func(c *Container) { c.IdentitySvc = v }
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...Option) (*Container, error) {
	c := &Container{Config: cfg, Log: log}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initDatabase(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRepositories(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initServices(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DBDriver, c.Config.DSN, c.Log)
	if err != nil {
		return err
	}
	// owned from here on so Close releases the pool on any later failure
	c.DB = db
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	cas, err := auth.NewCasbinService(db, c.Config.CasbinModelPath)
	if err != nil {
		return err
	}
	c.Enforcer = cas.E
	return nil
}

func (c *Container) initRedis(ctx context.Context) error {
	rdb := database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	c.RedisClient = rdb.Client

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return rdb.Ping(pingCtx)
}

func (c *Container) initRepositories() error {
	store, err := repositories.NewPrincipalStore(c.DB)
	if err != nil {
		return err
	}
	c.Store = store
	c.RateLimits = repositories.NewRateLimitRepository(c.RedisClient)
	return nil
}

func (c *Container) initServices(ctx context.Context) error {
	cfg := c.Config

	c.PasswordSvc = auth.NewPasswordService(cfg.BcryptCost)
	c.TokenSvc = auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	c.ResetCodeSvc = services.NewResetCodeService(cfg.ResetCodeTTL, time.Now)

	if c.NotificationSvc == nil {
		if !cfg.EmailEnabled() {
			c.Log.Warn("email delivery disabled: smtp is not configured")
		}
		c.NotificationSvc = notifications.NewNotificationService(notifications.Options{
			SMTPHost:     cfg.SMTPHost,
			SMTPPort:     cfg.SMTPPort,
			SMTPUsername: cfg.SMTPUsername,
			SMTPPassword: cfg.SMTPPassword,
			From:         cfg.SMTPFrom,
			TwilioSID:    cfg.TwilioSID,
			TwilioToken:  cfg.TwilioToken,
			TwilioFrom:   cfg.TwilioFrom,
			SMSEnabled:   cfg.SMSEnabled,
		}, c.Log)
	}

	if c.IdentitySvc == nil {
		verifier, err := identity.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile, c.Log)
		if err != nil {
			return err
		}
		c.IdentitySvc = verifier
	}

	var publisher domain.EventPublisher
	if cfg.NATSURL != "" {
		p, err := messaging.NewNATSPublisher(cfg.NATSURL, cfg.AppName, c.Log)
		if err != nil {
			return err
		}
		c.Publisher = p
		publisher = p
	}
	c.AuditLogger = services.NewAuditLogger(c.Log, publisher, cfg.NATSSubjectPrefix)

	c.AuthSvc = services.NewAuthService(
		c.Store,
		c.PasswordSvc,
		c.TokenSvc,
		c.ResetCodeSvc,
		c.NotificationSvc,
		c.AuditLogger,
		c.Log,
		services.AuthOptions{
			ResetMaxAttempts:     cfg.ResetMaxAttempts,
			ResetBlockDuration:   cfg.ResetBlockDuration,
			HideAccountExistence: cfg.HideAccountExistence,
			NotificationTimeout:  cfg.NotificationTimeout,
			SMSResetCodes:        cfg.SMSEnabled,
			Now:                  time.Now,
		},
	)

	c.PolicySvc = services.NewPolicyService(c.Enforcer)
	seeded, err := c.PolicySvc.SeedDefaults(services.DefaultPolicies())
	if err != nil {
		return err
	}
	if seeded > 0 {
		c.Log.Info("casbin: seeded default policies", "count", seeded)
	}
	return nil
}

// Router builds the HTTP router over the container's services.
func (c *Container) Router() *gin.Engine {
	limiter := middleware.NewRateLimitMW(c.RateLimits, c.Config.RateLimitWindow, c.Config.RateLimitMax, c.Log)
	deps := httpx.Deps{
		Auth:      handlers.NewAuthHandlers(c.AuthSvc, c.IdentitySvc, c.Log),
		Policies:  handlers.NewPolicyHandlers(c.PolicySvc),
		JWT:       middleware.NewAuthMW(c.AuthSvc),
		Casbin:    middleware.NewCasbinMW(services.NewCasbinEnforcerWrapper(c.Enforcer), c.Config.OwnershipRules, c.Log),
		RateLimit: limiter,
		Log:       c.Log,
	}
	if c.Config.ResetRateLimitMax > 0 {
		deps.ResetRateLimit = limiter.WithMax(c.Config.ResetRateLimitMax)
	}
	return httpx.BuildRouter(deps)
}

// Close closes all connections
func (c *Container) Close() error {
	if c.Publisher != nil {
		c.Publisher.Close()
	}
	if c.RedisClient != nil {
		c.RedisClient.Close()
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}
