package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string

	ServerPort int
	LogLevel   string

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte

	AuthHTTPURL    string
	CatalogHTTPURL string

	KafkaBrokers []string
	KafkaGroupID string

	RedisURL string

	ESURL      string
	ESUser     string
	ESPassword string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", ""),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   os.Getenv("LOG_LEVEL"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),

		AuthHTTPURL:    os.Getenv("AUTH_URL"),
		CatalogHTTPURL: os.Getenv("CATALOG_URL"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		RedisURL: os.Getenv("REDIS_URL"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
	}
}

// KafkaGroupID reads <SERVICE>_KAFKA_GROUP_ID, so a shared .env cannot put two
// services into one consumer group.
func KafkaGroupID(service, def string) string {
	return EnvDefault(strings.ToUpper(service)+"_KAFKA_GROUP_ID", def)
}

// LoadDotEnv loads the first .env file found among paths. Missing files are not an error,
// the process environment is used instead.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		err := godotenv.Load(p)
		if err == nil {
			return
		}
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("warning: could not load %s: %v", p, err)
		}
	}
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvInt64Default(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
