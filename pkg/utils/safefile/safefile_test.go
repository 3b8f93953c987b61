package safefile_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/oamfetch/pkg/utils/safefile"
)

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	err := safefile.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write([]byte("hello"))
		return err
	})
	gt.NoError(t, err)

	content, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.Equal(t, string(content), "hello")

	entries, err := os.ReadDir(dir)
	gt.NoError(t, err)
	gt.A(t, entries).Length(1)

	info, err := os.Stat(path)
	gt.NoError(t, err)
	gt.Equal(t, info.Mode().Perm(), safefile.FileMode)
}

func TestWriteAtomic_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	err := safefile.WriteAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("half"))
		return errors.New("connection reset")
	})
	gt.Error(t, err)

	_, err = os.Stat(path)
	gt.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	gt.NoError(t, err)
	gt.A(t, entries).Length(0)
}

func TestWriteAtomic_KeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	gt.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	err := safefile.WriteAtomic(path, func(w io.Writer) error {
		return errors.New("boom")
	})
	gt.Error(t, err)

	content, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.Equal(t, string(content), "old")
}

func TestPurgePartials(t *testing.T) {
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, ".partial-a.png-123"), []byte("x"), 0644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("y"), 0644))

	purged, err := safefile.PurgePartials(dir)
	gt.NoError(t, err)
	gt.A(t, purged).Length(1)

	_, err = os.Stat(filepath.Join(dir, "b.png"))
	gt.NoError(t, err)

	purged, err = safefile.PurgePartials(filepath.Join(dir, "missing"))
	gt.NoError(t, err)
	gt.A(t, purged).Length(0)
}
