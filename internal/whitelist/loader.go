package whitelist

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/svanoort/script-security-plugin/internal/signature"
)

//go:embed builtin/*.list
var builtinFS embed.FS

// Loader loads signature catalogs from the embedded builtin set and from
// the user catalog directory.
type Loader struct {
	userDir string
}

// NewLoader creates a loader for the given user catalog directory. An
// empty directory disables user catalogs.
func NewLoader(userDir string) *Loader {
	return &Loader{userDir: userDir}
}

// DefaultUserDir returns the default user catalog directory.
func DefaultUserDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scriptsec/whitelists.d"
	}
	return filepath.Join(home, ".scriptsec", "whitelists.d")
}

// UserDir returns the configured user catalog directory.
func (l *Loader) UserDir() string { return l.userDir }

// LoadBuiltin loads the embedded builtin catalogs. A malformed builtin
// entry is a build defect, so any parse error aborts the load.
func (l *Loader) LoadBuiltin() ([]*signature.Signature, error) {
	var all []*signature.Signature

	err := fs.WalkDir(builtinFS, "builtin", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".list") {
			return nil
		}
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		entries, err := ParseEntries(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		log.Trace("Loaded %d builtin entries from %s", len(entries), path)
		all = append(all, entries...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// LoadUser loads *.list catalogs from the user directory. A file that
// fails to parse is skipped with a warning; one bad file must not take
// down the rest of the catalog.
func (l *Loader) LoadUser() ([]*signature.Signature, error) {
	if l.userDir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(l.userDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	dirEntries, err := os.ReadDir(l.userDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	var all []*signature.Signature
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".list") {
			continue
		}
		path := filepath.Join(l.userDir, de.Name())
		f, err := os.Open(path)
		if err != nil {
			log.Warn("Failed to read catalog file %s: %v", path, err)
			continue
		}
		entries, err := ParseEntries(f)
		f.Close()
		if err != nil {
			log.Warn("Failed to parse catalog file %s: %v", path, err)
			continue
		}
		log.Trace("Loaded %d entries from %s", len(entries), de.Name())
		all = append(all, entries...)
	}
	return all, nil
}

// ListUserFiles returns the user catalog file names.
func (l *Loader) ListUserFiles() ([]string, error) {
	dirEntries, err := os.ReadDir(l.userDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, de := range dirEntries {
		if !de.IsDir() && strings.HasSuffix(de.Name(), ".list") {
			files = append(files, de.Name())
		}
	}
	return files, nil
}
