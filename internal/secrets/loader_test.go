package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecretFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeSecretFile(t, "top-secret-key\n")

	got, err := Load(Source{Name: "gemini api key", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "top-secret-key" {
		t.Fatalf("expected trimmed secret, got %q", got)
	}
}

func TestLoadFilePrecedesValue(t *testing.T) {
	path := writeSecretFile(t, "from-file")

	got, err := Load(Source{Value: "inline", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "from-file" {
		t.Fatalf("expected the file to win, got %q", got)
	}
}

func TestLoadInlineValue(t *testing.T) {
	got, err := Load(Source{Name: "database dsn", Value: "  postgres://localhost/ats  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "postgres://localhost/ats" {
		t.Fatalf("expected trimmed inline value, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	emptyFile := writeSecretFile(t, "   \n")

	cases := []struct {
		name string
		src  Source
		want string
	}{
		{name: "nothing configured", src: Source{Name: "gemini api key"}, want: "gemini api key is not configured"},
		{name: "unnamed secret", src: Source{}, want: "secret is not configured"},
		{name: "empty file", src: Source{Name: "token", File: emptyFile}, want: "is empty"},
		{name: "missing file", src: Source{Name: "token", File: filepath.Join(t.TempDir(), "absent")}, want: "reading token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.src)
			if err == nil {
				t.Fatalf("expected an error")
			}

			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %q", tc.want, err)
			}
		})
	}
}
