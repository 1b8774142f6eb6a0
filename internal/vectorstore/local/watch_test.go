package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
)

func writeIndex(t *testing.T, dir string, passages []domain.Passage, vectors [][]float32) {
	t.Helper()
	w, err := Create(dir)
	require.NoError(t, err)
	require.NoError(t, w.Init(context.Background(), len(vectors[0])))
	require.NoError(t, w.Upsert(context.Background(), passages, vectors))
	require.NoError(t, w.Commit())
}

func TestWatched_ReloadsRewrittenIndex(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, []domain.Passage{{Chapter: 1, Verse: 1, Text: "a"}}, [][]float32{{1, 0}})

	w, err := openWatched(context.Background(), dir, 20*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, 1, w.Len())

	writeIndex(t, dir,
		[]domain.Passage{{Chapter: 2, Verse: 47, Text: "duty"}, {Chapter: 2, Verse: 20, Text: "soul"}},
		[][]float32{{1, 0}, {0, 1}})

	require.Eventually(t, func() bool { return w.Len() == 2 }, 5*time.Second, 20*time.Millisecond)

	res, err := w.Search(context.Background(), []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 20, res[0].Passage.Verse)
}

func TestWatched_ServesPreviousCopyUntilCommit(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir,
		[]domain.Passage{{Chapter: 1, Verse: 1, Text: "a"}, {Chapter: 1, Verse: 2, Text: "b"}, {Chapter: 1, Verse: 3, Text: "c"}},
		[][]float32{{1, 0}, {0, 1}, {1, 1}})

	w, err := openWatched(context.Background(), dir, 20*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	ctx := context.Background()
	b, err := Create(dir)
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.Init(ctx, 2))
	require.NoError(t, b.Upsert(ctx, []domain.Passage{{Chapter: 2, Verse: 47, Text: "duty"}}, [][]float32{{1, 0}}))

	// Several debounce periods pass between batches.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 3, w.Len())

	require.NoError(t, b.Upsert(ctx,
		[]domain.Passage{{Chapter: 2, Verse: 20, Text: "soul"}, {Chapter: 2, Verse: 48, Text: "yoga"}, {Chapter: 12, Verse: 8, Text: "devotion"}},
		[][]float32{{0, 1}, {1, 1}, {1, 2}}))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 3, w.Len())

	require.NoError(t, b.Commit())
	require.Eventually(t, func() bool { return w.Len() == 4 }, 5*time.Second, 20*time.Millisecond)
}

func TestOpenWatched_MissingIndex(t *testing.T) {
	_, err := OpenWatched(context.Background(), t.TempDir(), zap.NewNop())
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}
