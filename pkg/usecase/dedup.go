package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/domain/types"
	"github.com/m-mizutani/oamfetch/pkg/utils/safefile"
)

// Dedup finds files with identical content in a directory
type Dedup struct {
	hash func(path string) (string, error)
}

// DedupOption configures Dedup
type DedupOption func(*Dedup)

// WithHasher replaces the SHA-256 file digest
func WithHasher(fn func(path string) (string, error)) DedupOption {
	return func(x *Dedup) {
		x.hash = fn
	}
}

// NewDedup creates a Dedup
func NewDedup(opts ...DedupOption) *Dedup {
	x := &Dedup{hash: hashFile}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Scan hashes every visible regular file in dir whose extension matches ext
// (any extension when ext is empty) and returns groups of identical files.
func (x *Dedup) Scan(ctx context.Context, dir, ext string) (*model.DuplicateReport, error) {
	logger := ctxlog.From(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read directory", goerr.V("dir", dir), goerr.T(types.ErrTagConfig))
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	report := &model.DuplicateReport{Dir: dir}
	byHash := make(map[string][]string)

	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || safefile.IsPartial(name) {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "scan interrupted", goerr.V("dir", dir))
		}

		report.Scanned++
		sum, err := x.hash(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("failed to hash file", "name", name, "error", err)
			report.Unreadable = append(report.Unreadable, model.UnreadableFile{Name: name, Reason: err.Error()})
			continue
		}
		byHash[sum] = append(byHash[sum], name)
	}

	for sum, names := range byHash {
		if len(names) < 2 {
			continue
		}
		sort.Strings(names)
		report.Groups = append(report.Groups, model.DuplicateGroup{
			Hash:       sum,
			Canonical:  names[0],
			Duplicates: names[1:],
		})
	}
	sort.Slice(report.Groups, func(i, j int) bool {
		return report.Groups[i].Canonical < report.Groups[j].Canonical
	})

	logger.Info("scanned for duplicates",
		"dir", dir,
		"scanned", report.Scanned,
		"groups", len(report.Groups),
		"redundant", report.RedundantCount(),
		"unreadable", len(report.Unreadable),
	)
	return report, nil
}

// Remove deletes the non-canonical members of every group in report and
// records them in report.Removed. Canonical files are never touched.
func (x *Dedup) Remove(ctx context.Context, report *model.DuplicateReport) error {
	logger := ctxlog.From(ctx)

	for _, g := range report.Groups {
		for _, name := range g.Duplicates {
			if name == g.Canonical {
				continue
			}
			if err := os.Remove(filepath.Join(report.Dir, name)); err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return goerr.Wrap(err, "failed to remove duplicate",
					goerr.V("name", name),
					goerr.V("canonical", g.Canonical))
			}
			report.Removed = append(report.Removed, name)
			logger.Info("removed duplicate", "name", name, "canonical", g.Canonical)
		}
	}
	return nil
}

// WriteReport renders report as KEEP / DUPLICATE lines per hash
func (x *Dedup) WriteReport(w io.Writer, report *model.DuplicateReport) error {
	bw := &errWriter{w: w}
	bw.printf("Duplicate files in %s\n", report.Dir)
	bw.printf("%s\n\n", strings.Repeat("=", 50))
	bw.printf("Scanned: %d, groups: %d, redundant: %d\n\n", report.Scanned, len(report.Groups), report.RedundantCount())

	for _, g := range report.Groups {
		bw.printf("Hash: %s\n", g.Hash)
		bw.printf("  KEEP: %s\n", g.Canonical)
		for _, name := range g.Duplicates {
			bw.printf("  DUPLICATE: %s\n", name)
		}
		bw.printf("\n")
	}

	for _, u := range report.Unreadable {
		bw.printf("UNREADABLE: %s (%s)\n", u.Name, u.Reason)
	}

	if bw.err != nil {
		return goerr.Wrap(bw.err, "failed to write duplicate report")
	}
	return nil
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open file", goerr.V("path", path), goerr.T(types.ErrTagIntegrity))
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", goerr.Wrap(err, "failed to read file", goerr.V("path", path), goerr.T(types.ErrTagIntegrity))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
