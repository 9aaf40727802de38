// Package store persists the portfolio profile and testimonials as flat JSON
// files. Every load reads the whole file and every write replaces it.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// ErrMalformed is returned when a backing file exists but is not valid JSON.
var ErrMalformed = errors.New("malformed backing file")

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// readJSON decodes path into out. found is false when the file does not exist.
func readJSON(fs afero.Fs, path string, out any) (found bool, err error) {
	b, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return true, nil
}

func writeJSON(fs afero.Fs, path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := afero.WriteFile(fs, path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
