package confs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the community server.
type Config struct {
	Env    string
	Port   string
	AppURL string

	// StoreDriver selects the record store: "postgres" or "memory".
	StoreDriver string
	DBURL       string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	JWTSecret    string
	TokenTTL     time.Duration
	CookieName   string
	CookieSecure bool
	CookieDomain string
	BcryptCost   int

	CORSOrigins []string

	// MediaBackend selects the asset store: "disk" or "s3".
	MediaBackend      string
	MediaDir          string
	MaxUploadBytes    int64
	AllowedImageTypes []string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
}

// Defaults returns a configuration suitable for local development.
func Defaults() Config {
	return Config{
		Env:               "development",
		Port:              "4000",
		AppURL:            "http://localhost:4000",
		StoreDriver:       "postgres",
		TokenTTL:          7 * 24 * time.Hour,
		CookieName:        "token",
		BcryptCost:        10,
		CORSOrigins:       []string{"http://localhost:3000"},
		MediaBackend:      "disk",
		MediaDir:          "public/images",
		MaxUploadBytes:    5 << 20,
		AllowedImageTypes: []string{"image/jpeg", "image/png"},
		S3Region:          "us-east-1",
	}
}

// LoadConfig loads environment variables from a .env file if present
// and builds a validated Config from them.
func LoadConfig() (Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv overlays the defaults with values found through lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			var out []string
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			*dst = out
		}
	}

	str("APP_ENV", &cfg.Env)
	str("PORT", &cfg.Port)
	str("APP_URL", &cfg.AppURL)
	str("STORE_DRIVER", &cfg.StoreDriver)
	str("DB_URL", &cfg.DBURL)
	str("DB_HOST", &cfg.DBHost)
	str("DB_PORT", &cfg.DBPort)
	str("DB_USER", &cfg.DBUser)
	str("DB_PASSWORD", &cfg.DBPassword)
	str("DB_NAME", &cfg.DBName)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("COOKIE_NAME", &cfg.CookieName)
	str("COOKIE_DOMAIN", &cfg.CookieDomain)
	str("MEDIA_BACKEND", &cfg.MediaBackend)
	str("MEDIA_DIR", &cfg.MediaDir)
	str("S3_BUCKET", &cfg.S3Bucket)
	str("S3_REGION", &cfg.S3Region)
	str("S3_ENDPOINT", &cfg.S3Endpoint)
	str("S3_ACCESS_KEY", &cfg.S3AccessKey)
	str("S3_SECRET_KEY", &cfg.S3SecretKey)
	str("S3_PUBLIC_BASE_URL", &cfg.S3PublicBaseURL)
	list("CORS_ORIGINS", &cfg.CORSOrigins)
	list("ALLOWED_IMAGE_TYPES", &cfg.AllowedImageTypes)

	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}
	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = b
	}
	if v, ok := lookup("BCRYPT_COST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = n
	}
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.MaxUploadBytes = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET environment variable is not set")
		}
		c.JWTSecret = "dev-only-secret"
		log.Printf("warning: JWT_SECRET not set, using development secret")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be greater than zero")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be greater than zero")
	}
	if len(c.AllowedImageTypes) == 0 {
		return errors.New("ALLOWED_IMAGE_TYPES must not be empty")
	}
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.MediaBackend {
	case "disk":
		if c.MediaDir == "" {
			return errors.New("MEDIA_DIR must be set for the disk media backend")
		}
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET must be set for the s3 media backend")
		}
	default:
		return fmt.Errorf("unknown MEDIA_BACKEND %q", c.MediaBackend)
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return "0.0.0.0:" + c.Port
}
