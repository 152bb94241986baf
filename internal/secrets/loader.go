// Package secrets resolves sensitive configuration values, such as API keys
// and database DSNs, from files or inline configuration.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret comes from. File wins over Value so that a
// config can carry a harmless default while deployments mount the real secret.
type Source struct {
	// Name appears in error messages so the operator knows which secret is
	// misconfigured.
	Name string
	// Value is an inline secret from configuration or flags.
	Value string
	// File points to a file holding the secret.
	File string
}

func (s Source) name() string {
	if n := strings.TrimSpace(s.Name); n != "" {
		return n
	}
	return "secret"
}

// Load resolves the secret and trims surrounding whitespace, including the
// trailing newline most secret files carry. An unresolvable source is an
// error, never an empty string.
func Load(src Source) (string, error) {
	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", src.name(), file, err)
		}

		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", src.name(), file)
		}
		return secret, nil
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s is not configured", src.name())
	}

	return secret, nil
}
