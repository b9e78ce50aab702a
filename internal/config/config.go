package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config agrupa tudo que o serviço lê do ambiente.
type Config struct {
	HTTPAddr string

	DBHost            string
	DBPort            uint
	DBName            string
	DBUsername        string
	DBPassword        string
	DBSecretID        string
	DBSSLModeDisabled bool

	JWTSecret          string
	CognitoRegion      string
	CognitoUserPoolID  string
	CognitoAppClientID string

	CORSAllowedOrigins []string
	NotifyWebhookURL   string

	ShortCodeLength int
	CodeMaxAttempts int
	ContractTTL     time.Duration
}

// Load lê um .env opcional (path vazio = ".env") e depois o ambiente.
func Load(path string) Config {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		log.Printf("config: ignoring %s: %v", path, err)
	}

	return Config{
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            uint(getint("DB_PORT", 5432)),
		DBName:            getenv("DB_NAME", "contracts"),
		DBUsername:        os.Getenv("DB_USERNAME"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBSecretID:        os.Getenv("DB_SECRET_ID"),
		DBSSLModeDisabled: os.Getenv("DB_SSL_MODE_DISABLE") == "true",

		JWTSecret:          os.Getenv("JWT_SECRET"),
		CognitoRegion:      os.Getenv("COGNITO_REGION"),
		CognitoUserPoolID:  os.Getenv("COGNITO_USER_POOL_ID"),
		CognitoAppClientID: os.Getenv("COGNITO_APP_CLIENT_ID"),

		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		NotifyWebhookURL:   os.Getenv("NOTIFY_WEBHOOK_URL"),

		ShortCodeLength: getint("SHORT_CODE_LENGTH", 6),
		CodeMaxAttempts: getint("CODE_MAX_ATTEMPTS", 8),
		ContractTTL:     time.Duration(getint("CONTRACT_TTL_HOURS", 72)) * time.Hour,
	}
}

// UsesCognito indica se os tokens vêm de um user pool do Cognito.
func (c Config) UsesCognito() bool {
	return c.CognitoUserPoolID != "" && c.CognitoRegion != ""
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
