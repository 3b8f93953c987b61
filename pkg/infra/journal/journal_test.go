package journal_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/oamfetch/pkg/domain/model"
	"github.com/m-mizutani/oamfetch/pkg/infra/journal"
)

func readLines(t *testing.T, path string) []map[string]any {
	f, err := os.Open(path)
	gt.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var v map[string]any
		gt.NoError(t, json.Unmarshal(scanner.Bytes(), &v))
		lines = append(lines, v)
	}
	gt.NoError(t, scanner.Err())
	return lines
}

func TestJournal_AppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "thumbnails.jsonl")
	ctx := context.Background()

	j1, err := journal.Open(path)
	gt.NoError(t, err)
	gt.NoError(t, j1.Record(ctx, model.DownloadEntry{
		RunID:    "run-1",
		Status:   model.DownloadStatusSuccess,
		RecordID: "a",
		Filename: "a.png",
		URL:      "https://example.com/a.png",
		Attempt:  1,
		Bytes:    42,
		Elapsed:  1500 * time.Millisecond,
	}))
	gt.NoError(t, j1.Close())

	j2, err := journal.Open(path)
	gt.NoError(t, err)
	gt.NoError(t, j2.Record(ctx, model.DownloadEntry{
		RunID:    "run-2",
		Status:   model.DownloadStatusFailure,
		RecordID: "b",
		Filename: "b.png",
		Attempt:  1,
		Reason:   "unexpected status code",
	}))
	gt.NoError(t, j2.Close())

	lines := readLines(t, path)
	gt.A(t, lines).Length(2)

	gt.Equal(t, lines[0]["run_id"], any("run-1"))
	gt.Equal(t, lines[0]["status"], any("success"))
	gt.Equal(t, lines[0]["filename"], any("a.png"))
	gt.Equal(t, lines[0]["bytes"], any(float64(42)))
	gt.Equal(t, lines[0]["elapsed_sec"], any(1.5))

	gt.Equal(t, lines[1]["status"], any("failure"))
	gt.Equal(t, lines[1]["level"], any("ERROR"))
	gt.Equal(t, lines[1]["reason"], any("unexpected status code"))
}

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("no space left on device")
}

func TestJournal_ReturnsWriteError(t *testing.T) {
	j := journal.New(brokenWriter{})
	err := j.Record(context.Background(), model.DownloadEntry{
		Status:   model.DownloadStatusSuccess,
		Filename: "a.png",
	})
	gt.Error(t, err)
	gt.True(t, strings.Contains(err.Error(), "failed to write journal entry"))
}
