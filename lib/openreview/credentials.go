package openreview

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	LoginEnv    = "LOGIN"
	PasswordEnv = "PASSWORD"
)

type Credentials struct {
	Username string
	Password string
}

// CredentialsFromEnv reads LOGIN and PASSWORD from the environment after
// loading the given dotenv files (".env" when none are given). Missing files
// are fine, variables already set in the environment win.
func CredentialsFromEnv(dotenvFiles ...string) (Credentials, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, file := range dotenvFiles {
		err := godotenv.Load(file)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	creds := Credentials{
		Username: os.Getenv(LoginEnv),
		Password: os.Getenv(PasswordEnv),
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("%s and %s must be set in the environment or a .env file", LoginEnv, PasswordEnv)
	}
	return creds, nil
}
