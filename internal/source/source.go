package source

import (
	"context"
	"fmt"
	"strings"
)

// Type tags the provider a document came from. The dedup key is namespaced by
// it, so textually similar references from different providers never collide.
type Type string

const (
	TypeOutlook    Type = "outlook"
	TypeOneDrive   Type = "onedrive"
	TypeSharePoint Type = "sharepoint"
	TypeDirectory  Type = "directory"
)

// Document is one raw CV pulled from a provider. Ref is the provider-native
// reference; some providers emit references longer than 255 characters, so it
// must never be truncated downstream.
type Document struct {
	Ref      string
	FileName string
	Text     string
}

// Source lists CV documents from one configured provider. The listing is
// finite and restartable: calling List again re-reads the provider.
type Source interface {
	Type() Type
	List(ctx context.Context) ([]Document, error)
}

// DedupKey resolves a provider-native reference into a stable key unique
// within a user's document universe. The same (type, ref) pair always
// resolves to the same key.
func DedupKey(t Type, ref string) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", fmt.Errorf("source type is required")
	}

	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("document reference is required")
	}

	return string(t) + ":" + ref, nil
}
