// Package notes reads clinical notes from plain-text and document files.
package notes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFormat is returned for extensions that cannot hold a note (spreadsheets,
// slide decks, images).
var ErrUnsupportedFormat = errors.New("unsupported note format")

// ErrTooLarge is returned when a note file exceeds the reader's size limit.
var ErrTooLarge = errors.New("note file too large")

// Extensions lists the accepted note file extensions.
var Extensions = []string{".txt", ".md", ".pdf", ".docx", ".odt", ".rtf"}

var rejected = map[string]bool{
	".xlsx": true, ".xls": true, ".csv": true, ".ods": true,
	".pptx": true, ".odp": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
}

// Reader extracts note text from files.
type Reader struct {
	maxBytes int64
}

// NewReader returns a Reader that refuses inputs larger than maxBytes (0 = no limit).
func NewReader(maxBytes int64) *Reader {
	return &Reader{maxBytes: maxBytes}
}

// ReadFile reads the note at path, choosing the decoder by extension.
func (r *Reader) ReadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("read note: %w", err)
	}
	if r.maxBytes > 0 && info.Size() > r.maxBytes {
		return "", fmt.Errorf("%s: %w (%d bytes, limit %d)", path, ErrTooLarge, info.Size(), r.maxBytes)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read note: %w", err)
	}
	return r.ReadBytes(content, filepath.Ext(path))
}

// ReadBytes extracts note text from content. ext includes the leading dot; an empty or
// unknown extension is read as plain text.
func (r *Reader) ReadBytes(content []byte, ext string) (string, error) {
	if r.maxBytes > 0 && int64(len(content)) > r.maxBytes {
		return "", fmt.Errorf("%w (%d bytes, limit %d)", ErrTooLarge, len(content), r.maxBytes)
	}
	ext = strings.ToLower(ext)
	if rejected[ext] {
		return "", fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
	switch ext {
	case ".pdf":
		return readPDF(content)
	case ".docx":
		return readDOCX(content)
	case ".odt", ".rtf":
		return readWithCat(content, ext)
	default:
		return readPlain(content), nil
	}
}

// readPlain returns content as a string, replacing invalid UTF-8 sequences.
func readPlain(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "\ufffd")
	}
	return string(content)
}
