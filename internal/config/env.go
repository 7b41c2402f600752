package config

import (
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
)

// envFiles are consulted in order; variables already set in the process win.
var envFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads KEY=VALUE pairs from .env and .env.local when present and
// returns the files that were read. It must run before flag parsing so that
// env-backed flags see the values.
func LoadEnvFiles() ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return loaded, errors.WrapError(err, errors.CategoryConfig, "failed to load .env file").
				WithContext("path", name).
				Build()
		}
		loaded = append(loaded, name)
	}
	return loaded, nil
}
