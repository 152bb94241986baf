package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"go.uber.org/zap"
)

// Directory lists CV files from a local folder, extracting text with docconv.
// Extraction quality is docconv's problem; a file it cannot read is skipped
// with a warning instead of failing the listing.
type Directory struct {
	path   string
	logger *zap.Logger
}

func NewDirectory(path string, logger *zap.Logger) *Directory {
	return &Directory{path: path, logger: logger}
}

func (d *Directory) Type() Type { return TypeDirectory }

func (d *Directory) List(ctx context.Context) ([]Document, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("reading cv directory %q: %w", d.path, err)
	}

	docs := make([]Document, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if entry.IsDir() || !IsCVFile(entry.Name()) {
			continue
		}

		path := filepath.Join(d.path, entry.Name())
		res, err := docconv.ConvertPath(path)
		if err != nil {
			d.logger.Warn("skipping unreadable cv file",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}

		docs = append(docs, Document{
			Ref:      path,
			FileName: entry.Name(),
			Text:     res.Body,
		})
	}

	return docs, nil
}

// IsCVFile reports whether the file name looks like a CV document.
func IsCVFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx", ".doc", ".rtf", ".odt", ".txt":
		return true
	default:
		return false
	}
}
