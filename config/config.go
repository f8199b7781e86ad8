package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// LoadEnv loads variables from .env once. Missing file is fine in
// production where the environment is injected directly.
func LoadEnv() {
	loadOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			if _, statErr := os.Stat(".env"); statErr == nil {
				log.Printf("Warning: .env present but could not be loaded: %v", err)
			}
		}
	})
}
