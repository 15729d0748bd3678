package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

func loadDotenv() {
	for _, p := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Overload(p)
			log.Println("[env] loaded", p)
			return
		}
	}
}

// mustCheckEnv fails fast on anything the service cannot run without.
func mustCheckEnv() {
	required := []string{"DB_USER", "DB_PASSWORD", "DB_NAME", "SECRET_KEY"}
	for _, k := range required {
		if os.Getenv(k) == "" {
			log.Fatalf("missing required env %s", k)
		}
	}
}
