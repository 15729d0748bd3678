package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config is built once at startup and passed into the pieces that need it.
// Nothing reads the environment after loadConfig returns.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	SecretKey      string
	Algorithm      string
	AccessTokenTTL time.Duration

	Port       string
	CORSOrigin string
}

func loadConfig() Config {
	return Config{
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		SecretKey:      os.Getenv("SECRET_KEY"),
		Algorithm:      getenv("ALGORITHM", "HS256"),
		AccessTokenTTL: time.Duration(getenvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,

		Port:       getenv("PORT", "8080"),
		CORSOrigin: getenv("CORS_ORIGIN", "http://localhost:4200"),
	}
}

// DSN assembles the postgres connection string from the discrete DB_* vars.
// Credentials are escaped; passwords routinely carry characters that break a
// bare URL.
func (c Config) DSN() string {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword),
		c.DBHost, c.DBPort, c.DBName)
	// local only: sslmode=disable when talking to localhost
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		dsn += "?sslmode=disable"
	}
	return dsn
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
