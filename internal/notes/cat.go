package notes

import (
	"fmt"
	"os"

	"github.com/lu4p/cat"
)

// readWithCat extracts text from ODT and RTF documents. cat decodes by file name, so the
// content is staged in a temporary file.
func readWithCat(content []byte, ext string) (string, error) {
	f, err := os.CreateTemp("", "note-*"+ext)
	if err != nil {
		return "", fmt.Errorf("stage %s note: %w", ext, err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("stage %s note: %w", ext, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("stage %s note: %w", ext, err)
	}
	text, err := cat.File(f.Name())
	if err != nil {
		return "", fmt.Errorf("extract %s note: %w", ext, err)
	}
	return text, nil
}
