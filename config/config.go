package config

import (
	"log"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
)

var dotEnvOnce sync.Once

// loadDotEnv loads the project-root .env once; missing files fall back to
// the process environment.
func loadDotEnv() {
	dotEnvOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		rootDir := filepath.Dir(filepath.Dir(filename))
		envPath := filepath.Join(rootDir, ".env")

		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: .env file not found at %s, falling back to environment variables", envPath)
		}
	})
}
