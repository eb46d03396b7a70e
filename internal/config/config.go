package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string

	RedisURL string

	JWTSecret string

	AccessTokenMaxAge       int // seconds
	RefreshTokenMaxAge      int // seconds
	PasswordResetTokenAge   int // seconds
	EmailVerifyTokenMaxAge  int // seconds

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailFromName string

	// Base URL of the frontend, used to build verification/reset links.
	AppBaseURL string

	AdminEmails        map[string]struct{}
	AdminBypassEnabled bool
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	appBaseURL := strings.TrimSuffix(os.Getenv("APP_BASE_URL"), "/")
	if appBaseURL == "" {
		appBaseURL = "http://localhost:3000"
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  sslMode,

		ServerPort: serverPort,

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AccessTokenMaxAge:      envInt("ACCESS_TOKEN_MAX_AGE", 1800),        // 30 minutes
		RefreshTokenMaxAge:     envInt("REFRESH_TOKEN_MAX_AGE", 14*24*3600), // 14 days
		PasswordResetTokenAge:  envInt("PASSWORD_RESET_TOKEN_MAX_AGE", 900), // 15 minutes
		EmailVerifyTokenMaxAge: envInt("EMAIL_VERIFY_TOKEN_MAX_AGE", 24*3600),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     os.Getenv("SMTP_PORT"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),
		MailFromName: os.Getenv("MAIL_FROM_NAME"),

		AppBaseURL: appBaseURL,

		AdminEmails:        parseAdminEmails(os.Getenv("ADMIN_EMAILS")),
		AdminBypassEnabled: envBool("ADMIN_BYPASS_ENABLED"),
	}, nil
}

// IsAdmin reports whether the email is on the allow-list and the bypass
// feature is enabled.
func (c *Config) IsAdmin(email string) bool {
	if !c.AdminBypassEnabled || email == "" {
		return false
	}
	_, ok := c.AdminEmails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// parseAdminEmails accepts a comma-separated list and returns a lowercased,
// trimmed set.
func parseAdminEmails(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			set[part] = struct{}{}
		}
	}
	return set
}
