package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/tailscale/hujson"
)

// lockRetryDelay is how often a blocked persist retries the file lock.
const lockRetryDelay = 100 * time.Millisecond

// Store persists the consolidated catalog document. Writes are atomic
// (temp file + rename) and guarded by a file lock so overlapping runs cannot
// interleave partial output.
type Store struct {
	outputPath     string
	controllerPath string
}

// NewStore creates a store writing to outputPath, with manual overrides read
// from controllerPath.
func NewStore(outputPath, controllerPath string) *Store {
	return &Store{
		outputPath:     outputPath,
		controllerPath: controllerPath,
	}
}

// LoadController reads the controller override file. The file is
// hand-maintained, so comments and trailing commas are tolerated. The
// returned bool reports whether the file existed; absence is not an error.
func (s *Store) LoadController() (map[string]any, bool, error) {
	data, err := os.ReadFile(s.controllerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read controller file %s: %w", s.controllerPath, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, true, fmt.Errorf("failed to decode controller file %s: %w", s.controllerPath, err)
	}

	var override map[string]any
	if err := json.Unmarshal(standardized, &override); err != nil {
		return nil, true, fmt.Errorf("failed to decode controller file %s: %w", s.controllerPath, err)
	}
	return override, true, nil
}

// MergeController applies the override on top of the document as a shallow
// top-level merge: an override key fully replaces the same-named catalog key.
func MergeController(doc, override map[string]any) map[string]any {
	merged := make(map[string]any, len(doc)+len(override))
	for k, v := range doc {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// PersistIfChanged writes the document to the output path unless the
// previously persisted content is deeply equal to it. It reports whether a
// write was performed.
func (s *Store) PersistIfChanged(ctx context.Context, doc map[string]any) (bool, error) {
	newData, err := encodeDocument(doc)
	if err != nil {
		return false, fmt.Errorf("failed to marshal catalog: %w", err)
	}

	existing, err := s.readExisting()
	if err != nil {
		return false, err
	}
	if existing != nil {
		existingData, err := encodeDocument(existing)
		if err != nil {
			return false, fmt.Errorf("failed to re-encode existing catalog: %w", err)
		}
		if bytes.Equal(existingData, newData) {
			return false, nil
		}
	}

	if err := s.write(ctx, newData); err != nil {
		return false, err
	}
	return true, nil
}

// readExisting loads and parses the current output file, or nil when no
// prior file exists.
func (s *Store) readExisting() (map[string]any, error) {
	data, err := os.ReadFile(s.outputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read existing catalog %s: %w", s.outputPath, err)
	}

	var existing map[string]any
	if err := json.Unmarshal(data, &existing); err != nil {
		return nil, fmt.Errorf("existing catalog %s is malformed: %w", s.outputPath, err)
	}
	return existing, nil
}

// write performs the locked, atomic write of the encoded catalog.
func (s *Store) write(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.outputPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fileLock := flock.New(s.outputPath + ".lock")
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock output file: %w", err)
	}
	if !locked {
		return fmt.Errorf("output file %s is locked by another run", s.outputPath)
	}
	defer func() {
		_ = fileLock.Unlock()
	}()

	tempPath := s.outputPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary catalog file: %w", err)
	}

	if err := os.Rename(tempPath, s.outputPath); err != nil {
		// Clean up temp file on error
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename catalog file: %w", err)
	}

	return nil
}

// encodeDocument renders the document the way the catalog file is stored:
// four-space indentation, sorted keys, HTML and non-ASCII characters left
// unescaped. Both sides of the change comparison go through this encoding,
// which makes byte equality a deep-equality check.
func encodeDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
