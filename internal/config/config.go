package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MinBcryptCost is the lowest work factor the service accepts.
const MinBcryptCost = 12

type OwnershipRule struct {
	Method    string `yaml:"method"`
	Path      string `yaml:"path"`
	Source    string `yaml:"source"`
	ParamName string `yaml:"paramName"`
}

type AppConfig struct {
	Port     int    `yaml:"port"`
	GinMode  string `yaml:"gin_mode"`
	LogLevel string `yaml:"log_level"`
	Name     string `yaml:"name"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
	TTL    string `yaml:"ttl"`
}

type ResetConfig struct {
	CodeTTL       string `yaml:"code_ttl"`
	MaxAttempts   int    `yaml:"max_attempts"`
	BlockDuration string `yaml:"block_duration"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type RateLimitConfig struct {
	Window           string `yaml:"window"`
	MaxRequests      int    `yaml:"max_requests"`
	ResetMaxRequests int    `yaml:"reset_max_requests"`
}

type SecurityConfig struct {
	BcryptCost           int  `yaml:"bcrypt_cost"`
	HideAccountExistence bool `yaml:"hide_account_existence"`
}

type NotificationConfig struct {
	Timeout string `yaml:"timeout"`
	SMS     bool   `yaml:"sms_enabled"`
}

type ConfigFile struct {
	App           AppConfig          `yaml:"app"`
	Database      DatabaseConfig     `yaml:"database"`
	Redis         RedisConfig        `yaml:"redis"`
	JWT           JWTConfig          `yaml:"jwt"`
	Reset         ResetConfig        `yaml:"reset"`
	SMTP          SMTPConfig         `yaml:"smtp"`
	Twilio        TwilioConfig       `yaml:"twilio"`
	Firebase      FirebaseConfig     `yaml:"firebase"`
	NATS          NATSConfig         `yaml:"nats"`
	Casbin        CasbinConfig       `yaml:"casbin"`
	RateLimit     RateLimitConfig    `yaml:"rate_limit"`
	Security      SecurityConfig     `yaml:"security"`
	Notifications NotificationConfig `yaml:"notifications"`
}

type Config struct {
	AppName  string
	Port     string
	GinMode  string
	LogLevel string

	DBDriver string
	DSN      string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	BcryptCost           int
	HideAccountExistence bool

	ResetCodeTTL       time.Duration
	ResetMaxAttempts   int
	ResetBlockDuration time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
	SMSEnabled  bool

	NotificationTimeout time.Duration

	FirebaseProjectID       string
	FirebaseCredentialsFile string

	NATSURL           string
	NATSSubjectPrefix string

	RateLimitWindow time.Duration
	RateLimitMax    int

	// ResetRateLimitMax budgets reset-code submissions; it sits above
	// ResetMaxAttempts so the lockout answers before the limiter does.
	ResetRateLimitMax int

	CasbinModelPath string
	OwnershipRules  []OwnershipRule
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Load reads config/config.yml (or CONFIG_PATH), applies environment overrides and validates the result.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	configFile, err := loadConfigFile(env("CONFIG_PATH", "config/config.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	ownershipRules, err := loadOwnershipRules(env("OWNERSHIP_RULES_PATH", "config/ownership_rules.yml"))
	if err != nil {
		return nil, err
	}

	cfg, err := FromFile(configFile)
	if err != nil {
		return nil, err
	}
	cfg.OwnershipRules = ownershipRules

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile flattens a parsed config file, applying environment overrides and defaults.
func FromFile(f *ConfigFile) (*Config, error) {
	tokenTTL, err := parseDuration("JWT_TTL", f.JWT.TTL, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT TTL: %w", err)
	}
	codeTTL, err := parseDuration("RESET_CODE_TTL", f.Reset.CodeTTL, 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid reset code TTL: %w", err)
	}
	blockFor, err := parseDuration("RESET_BLOCK_DURATION", f.Reset.BlockDuration, 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid reset block duration: %w", err)
	}
	notifyTimeout, err := parseDuration("NOTIFICATION_TIMEOUT", f.Notifications.Timeout, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid notification timeout: %w", err)
	}
	window, err := parseDuration("RATE_LIMIT_WINDOW", f.RateLimit.Window, 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit window: %w", err)
	}

	port := f.App.Port
	if port == 0 {
		port = 8080
	}

	return &Config{
		AppName:  env("APP_NAME", orDefault(f.App.Name, "59minutes-auth")),
		Port:     env("PORT", strconv.Itoa(port)),
		GinMode:  env("GIN_MODE", orDefault(f.App.GinMode, "release")),
		LogLevel: env("LOG_LEVEL", orDefault(f.App.LogLevel, "info")),

		DBDriver: env("DATABASE_DRIVER", orDefault(f.Database.Driver, "postgres")),
		DSN:      env("DATABASE_DSN", f.Database.DSN),

		RedisAddr:     env("REDIS_ADDR", f.Redis.Addr),
		RedisPassword: env("REDIS_PASSWORD", f.Redis.Password),
		RedisDB:       envInt("REDIS_DB", f.Redis.DB),

		JWTSecret: env("JWT_SECRET", f.JWT.Secret),
		JWTIssuer: env("JWT_ISSUER", orDefault(f.JWT.Issuer, "59minutes")),
		TokenTTL:  tokenTTL,

		BcryptCost:           envInt("BCRYPT_COST", orDefaultInt(f.Security.BcryptCost, MinBcryptCost)),
		HideAccountExistence: envBool("HIDE_ACCOUNT_EXISTENCE", f.Security.HideAccountExistence),

		ResetCodeTTL:       codeTTL,
		ResetMaxAttempts:   envInt("RESET_MAX_ATTEMPTS", orDefaultInt(f.Reset.MaxAttempts, 5)),
		ResetBlockDuration: blockFor,

		SMTPHost:     env("SMTP_HOST", f.SMTP.Host),
		SMTPPort:     envInt("SMTP_PORT", orDefaultInt(f.SMTP.Port, 587)),
		SMTPUsername: env("SMTP_USERNAME", f.SMTP.Username),
		SMTPPassword: env("SMTP_PASSWORD", f.SMTP.Password),
		SMTPFrom:     env("SMTP_FROM", f.SMTP.From),

		TwilioSID:   env("TWILIO_ACCOUNT_SID", f.Twilio.AccountSID),
		TwilioToken: env("TWILIO_AUTH_TOKEN", f.Twilio.AuthToken),
		TwilioFrom:  env("TWILIO_FROM_NUMBER", f.Twilio.FromNumber),
		SMSEnabled:  envBool("SMS_ENABLED", f.Notifications.SMS),

		NotificationTimeout: notifyTimeout,

		FirebaseProjectID:       env("FIREBASE_PROJECT_ID", f.Firebase.ProjectID),
		FirebaseCredentialsFile: env("FIREBASE_CREDENTIALS_FILE", f.Firebase.CredentialsFile),

		NATSURL:           env("NATS_URL", f.NATS.URL),
		NATSSubjectPrefix: env("NATS_SUBJECT_PREFIX", orDefault(f.NATS.SubjectPrefix, "auth.events")),

		RateLimitWindow:   window,
		RateLimitMax:      envInt("RATE_LIMIT_MAX", orDefaultInt(f.RateLimit.MaxRequests, 5)),
		ResetRateLimitMax: envInt("RATE_LIMIT_RESET_MAX", orDefaultInt(f.RateLimit.ResetMaxRequests, 20)),

		CasbinModelPath: env("CASBIN_MODEL_PATH", orDefault(f.Casbin.ModelPath, "config/model.conf")),
	}, nil
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.BcryptCost < MinBcryptCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be at least %d", MinBcryptCost))
	}
	if c.DSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.DBDriver))
	}
	if c.ResetMaxAttempts < 1 {
		errs = append(errs, errors.New("reset max attempts must be positive"))
	}
	if c.RateLimitMax < 1 {
		errs = append(errs, errors.New("rate limit max requests must be positive"))
	}
	if c.ResetRateLimitMax <= c.ResetMaxAttempts {
		errs = append(errs, errors.New("reset rate limit must exceed reset max attempts"))
	}
	return errors.Join(errs...)
}

// EmailEnabled reports whether SMTP delivery is configured.
func (c *Config) EmailEnabled() bool { return c.SMTPHost != "" && c.SMTPFrom != "" }

// SocialLoginEnabled reports whether a Firebase project is configured.
func (c *Config) SocialLoginEnabled() bool { return c.FirebaseProjectID != "" }

func parseDuration(envKey, raw string, def time.Duration) (time.Duration, error) {
	raw = env(envKey, raw)
	if raw == "" {
		return def, nil
	}
	return time.ParseDuration(raw)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	config := ConfigFile{Security: SecurityConfig{HideAccountExistence: true}}
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}

func loadOwnershipRules(path string) ([]OwnershipRule, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read ownership rules file: %w", err)
	}

	var rules struct {
		Rules []OwnershipRule `yaml:"ownershipRules"`
	}
	if err := yaml.Unmarshal(bytes, &rules); err != nil {
		return nil, fmt.Errorf("could not parse ownership rules yaml: %w", err)
	}
	return rules.Rules, nil
}
