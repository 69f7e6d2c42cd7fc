package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string
	BaseURL string

	MongoURI string

	CloudinaryURL string

	JWTSecret     string
	AdminUser     string
	AdminPassHash string

	BrevoAPIKey      string
	BrevoListID      int
	BrevoSenderEmail string
	NewsletterLogo   string

	QuoteAPIURL   string
	QuoteFilePath string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

// Load reads the .env file if present and builds the config from the
// environment. Missing optional values fall back to defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	listID, _ := strconv.Atoi(getEnv("BREVO_LIST_ID", "0"))

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		MongoURI: getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),

		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminUser:     getEnv("ADMIN_USER", "admin"),
		AdminPassHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		BrevoAPIKey:      os.Getenv("BREVO_API_KEY"),
		BrevoListID:      listID,
		BrevoSenderEmail: os.Getenv("BREVO_SENDER_EMAIL"),
		NewsletterLogo:   os.Getenv("NEWSLETTER_LOGO_URL"),

		QuoteAPIURL:   getEnv("ANIMECHAN_URL", "https://api.animechan.io/v1/quotes/random"),
		QuoteFilePath: getEnv("QUOTE_FILE", "data/quote.json"),

		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
	}
}

// Validate returns one error string per required variable that is missing or
// malformed. JWT and Mongo settings are hard requirements; the Cloudinary,
// Brevo and VAPID blocks only disable their collaborators when absent.
func (c *Config) Validate() []string {
	var errs []string

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if c.MongoURI == "" {
		errs = append(errs, "MONGODB_URI is required")
	}
	if c.AdminPassHash == "" {
		errs = append(errs, "ADMIN_PASSWORD_HASH is required")
	}
	if c.BrevoAPIKey != "" && !strings.HasPrefix(c.BrevoAPIKey, "xkeysib-") {
		errs = append(errs, `BREVO_API_KEY must start with "xkeysib-"`)
	}
	if c.BrevoAPIKey != "" && c.BrevoListID == 0 {
		errs = append(errs, "BREVO_LIST_ID must be a valid number")
	}
	if c.BrevoSenderEmail != "" && !strings.Contains(c.BrevoSenderEmail, "@") {
		errs = append(errs, "BREVO_SENDER_EMAIL must be a valid email address")
	}

	return errs
}

// NewsletterEnabled reports whether the Brevo collaborator is configured.
func (c *Config) NewsletterEnabled() bool {
	return c.BrevoAPIKey != "" && c.BrevoListID != 0
}

// PushEnabled reports whether web push keys are configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
