package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/oamfetch/pkg/usecase"
)

func TestMirror_Run(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.tif":                "A",
		"b.tif":                "B",
		"c.tif":                "C",
		".partial-d.tif-99999": "D",
	})

	store := &MockObjectStore{
		objects:   map[string][]byte{"a.tif": []byte("A")},
		uploadErr: map[string]error{"c.tif": errors.New("quota exceeded")},
	}

	result, err := usecase.NewMirror(store).Run(context.Background(), dir)
	gt.NoError(t, err)
	gt.Equal(t, result.Skipped, []string{"a.tif"})
	gt.Equal(t, result.Uploaded, []string{"b.tif"})
	gt.Equal(t, result.Failed, []string{"c.tif"})
	gt.Equal(t, string(store.objects["b.tif"]), "B")
	gt.Equal(t, len(store.objects), 2)
}
