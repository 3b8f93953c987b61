// Package safefile writes files so that a crash never leaves a truncated file
// under the final name.
package safefile

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// PartialPrefix marks in-flight files. They are never treated as complete.
const PartialPrefix = ".partial-"

// FileMode is applied to every file written by WriteAtomic
const FileMode os.FileMode = 0o644

// WriteAtomic streams fn's output into a temporary file next to path and
// renames it onto path only when fn succeeds.
func WriteAtomic(path string, fn func(w io.Writer) error) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, PartialPrefix+name+"-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file", goerr.V("path", path))
	}
	tmpName := tmp.Name()

	if err := fn(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}

	if err := tmp.Chmod(FileMode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return goerr.Wrap(err, "failed to set file mode", goerr.V("path", tmpName))
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return goerr.Wrap(err, "failed to sync temporary file", goerr.V("path", tmpName))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return goerr.Wrap(err, "failed to close temporary file", goerr.V("path", tmpName))
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return goerr.Wrap(err, "failed to rename temporary file", goerr.V("from", tmpName), goerr.V("to", path))
	}
	return nil
}

// IsPartial reports whether name is an in-flight temporary file
func IsPartial(name string) bool {
	return strings.HasPrefix(filepath.Base(name), PartialPrefix)
}

// PurgePartials removes temporary files left behind by an interrupted run and
// returns their names.
func PurgePartials(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read directory", goerr.V("dir", dir))
	}

	var purged []string
	for _, e := range entries {
		if e.IsDir() || !IsPartial(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return purged, goerr.Wrap(err, "failed to remove partial file", goerr.V("name", e.Name()))
		}
		purged = append(purged, e.Name())
	}
	return purged, nil
}
