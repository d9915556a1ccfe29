package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	FrontendURL            string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	JWTRefreshSecret       string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	LoginCodeTTL           time.Duration
	AllowedEmailDomain     string
	SendgridAPIKey         string
	MailFromName           string
	MailFromAddress        string
	GoogleClientID         string
	GoogleClientSecret     string
	GoogleRedirectURL      string
	GitHubClientID         string
	GitHubClientSecret     string
	GitHubRedirectURL      string
	GitHubRequestTimeout   time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
// Cookie security flags depend on it.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DEBTCLEANER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "DebtCleaner API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "168h")
	v.SetDefault("login_code.ttl", "5m")
	v.SetDefault("mail.from_name", "DebtCleaner")
	v.SetDefault("github.request_timeout", "10s")
	v.SetDefault("cloudinary.folder", "debtcleaner/submissions")

	accessTTL, err := time.ParseDuration(v.GetString("jwt.access_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid access token ttl: %w", err)
	}

	refreshTTL, err := time.ParseDuration(v.GetString("jwt.refresh_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid refresh token ttl: %w", err)
	}

	codeTTL, err := time.ParseDuration(v.GetString("login_code.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid login code ttl: %w", err)
	}

	githubTimeout, err := time.ParseDuration(v.GetString("github.request_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid github request timeout: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		FrontendURL:            v.GetString("app.frontend_url"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTRefreshSecret:       v.GetString("jwt.refresh_secret"),
		AccessTokenTTL:         accessTTL,
		RefreshTokenTTL:        refreshTTL,
		LoginCodeTTL:           codeTTL,
		AllowedEmailDomain:     v.GetString("auth.allowed_email_domain"),
		SendgridAPIKey:         v.GetString("sendgrid.api_key"),
		MailFromName:           v.GetString("mail.from_name"),
		MailFromAddress:        v.GetString("mail.from_address"),
		GoogleClientID:         v.GetString("google.client_id"),
		GoogleClientSecret:     v.GetString("google.client_secret"),
		GoogleRedirectURL:      v.GetString("google.redirect_url"),
		GitHubClientID:         v.GetString("github.client_id"),
		GitHubClientSecret:     v.GetString("github.client_secret"),
		GitHubRedirectURL:      v.GetString("github.redirect_url"),
		GitHubRequestTimeout:   githubTimeout,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	if cfg.JWTSecret == cfg.JWTRefreshSecret {
		return Config{}, fmt.Errorf("access and refresh secrets must differ")
	}

	if cfg.LoginCodeTTL < 5*time.Minute || cfg.LoginCodeTTL > 10*time.Minute {
		return Config{}, fmt.Errorf("login code ttl must be between 5m and 10m")
	}

	return cfg, nil
}
