package connector

import (
	"os"

	"github.com/joho/godotenv"
)

// CredentialResolver maps a connector's credential binding to concrete
// secret values. Implementations must be safe for concurrent use.
type CredentialResolver interface {
	Resolve(def Definition) map[string]string
}

// EnvCredentialResolver resolves credentials from the process environment:
// the variable named by the definition's credentialRef becomes the "token"
// entry. Connectors without a credentialRef get an empty mapping.
type EnvCredentialResolver struct{}

func (EnvCredentialResolver) Resolve(def Definition) map[string]string {
	credentials := map[string]string{}
	if def.CredentialRef == "" {
		return credentials
	}
	if value := os.Getenv(def.CredentialRef); value != "" {
		credentials["token"] = value
	}
	return credentials
}

// LoadDotEnv loads environment variables from .env files before credential
// resolution. Existing environment variables are not overwritten; missing
// files are skipped. With no arguments it loads "./.env".
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}
