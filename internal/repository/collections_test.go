package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
)

const collectionsYAML = `
collections:
  - slug: sample
    title: Sample problems
    root:
      visualArea: [511, 511]
      logicalArea: [511, 511]
      player: [1]
    tsumegos:
      - slug: first
        subtitle: Black to live
        state:
          visualArea: [511, 511]
          player: [1]
        value:
          low: 0
          high: 6
      - slug: second
        subtitle: White to kill
        botToPlay: true
        state:
          player: [3]
`

func TestLoadCollectionsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.yaml")
	require.NoError(t, os.WriteFile(path, []byte(collectionsYAML), 0o600))

	collections, err := LoadCollectionsYAML(path)
	require.NoError(t, err)
	require.Len(t, collections, 1)

	c := collections[0]
	assert.Equal(t, "sample", c.Slug)
	assert.Equal(t, "Sample problems", c.Title)
	assert.Equal(t, []uint64{511, 511}, c.Root.VisualArea)
	require.Len(t, c.Tsumegos, 2)
	assert.Equal(t, &tsumego.Bound{Low: 0, High: 6}, c.Tsumegos[0].Value)
	assert.Nil(t, c.Tsumegos[1].Value)
	assert.True(t, c.Tsumegos[1].BotToPlay)
}

func TestLoadCollectionsYAMLRequiresSlug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collections:\n  - title: nameless\n"), 0o600))

	_, err := LoadCollectionsYAML(path)
	assert.ErrorIs(t, err, errors.ErrMalformedCollection)
}

func TestLoadCollectionsYAMLRejectsRouteSlugs(t *testing.T) {
	for _, slug := range []string{"verify", "explore"} {
		path := filepath.Join(t.TempDir(), "collections.yaml")
		doc := "collections:\n  - slug: sample\n    tsumegos:\n      - slug: " + slug + "\n"
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

		_, err := LoadCollectionsYAML(path)
		assert.ErrorIs(t, err, errors.ErrMalformedCollection, slug)
	}
}

func TestCollectionValidate(t *testing.T) {
	valid := tsumego.Collection{Slug: "sample", Tsumegos: []tsumego.Tsumego{{Slug: "first"}, {Slug: "second"}}}
	assert.NoError(t, valid.Validate())

	duplicate := tsumego.Collection{Slug: "sample", Tsumegos: []tsumego.Tsumego{{Slug: "first"}, {Slug: "first"}}}
	assert.ErrorIs(t, duplicate.Validate(), errors.ErrMalformedCollection)

	nameless := tsumego.Collection{Slug: "sample", Tsumegos: []tsumego.Tsumego{{Subtitle: "no slug"}}}
	assert.ErrorIs(t, nameless.Validate(), errors.ErrMalformedCollection)
}

func TestMemoryCollectionStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryCollectionStorage(
		tsumego.Collection{Slug: "b", Title: "B"},
		tsumego.Collection{Slug: "a", Title: "A", Tsumegos: []tsumego.Tsumego{{Slug: "one"}}},
	)

	list, err := storage.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Slug)

	_, ts, err := storage.GetTsumego(ctx, "a", "one")
	require.NoError(t, err)
	assert.Equal(t, "one", ts.Slug)

	_, _, err = storage.GetTsumego(ctx, "a", "two")
	assert.ErrorIs(t, err, errors.ErrTsumegoNotFound)
	_, err = storage.GetBySlug(ctx, "c")
	assert.ErrorIs(t, err, errors.ErrCollectionNotFound)

	err = storage.Upsert(ctx, tsumego.Collection{Slug: "c", Tsumegos: []tsumego.Tsumego{{Slug: "explore"}}})
	assert.ErrorIs(t, err, errors.ErrMalformedCollection)
	_, err = storage.GetBySlug(ctx, "c")
	assert.ErrorIs(t, err, errors.ErrCollectionNotFound)

	require.NoError(t, storage.Upsert(ctx, tsumego.Collection{Slug: "c"}))
	_, err = storage.GetBySlug(ctx, "c")
	assert.NoError(t, err)
}
