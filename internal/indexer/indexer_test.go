package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/chunker"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/vectorstore/local"
)

// keywordEmbedder maps text onto three axes by keyword.
type keywordEmbedder struct {
	calls int
	fail  bool
}

func (k *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	k.calls++
	if k.fail {
		return nil, errors.New("boom")
	}
	t := strings.ToLower(text)
	v := []float32{0.01, 0.01, 0.01}
	if strings.Contains(t, "duty") {
		v[0] = 1
	}
	if strings.Contains(t, "soul") {
		v[1] = 1
	}
	if strings.Contains(t, "devotion") {
		v[2] = 1
	}
	return v, nil
}

const corpus = `{"chapter": 2, "verse": 47, "text": "You have the right to perform your duty."}

{"chapter": 2, "verse": 20, "text": "The soul is never born and never dies."}
{"chapter": 12, "verse": 8, "text": "Fix your mind on me with devotion."}
`

func TestReadCorpus(t *testing.T) {
	recs, err := ReadCorpus(strings.NewReader(corpus))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, Record{Chapter: 2, Verse: 47, Text: "You have the right to perform your duty."}, recs[0])
}

func TestReadCorpus_BadLine(t *testing.T) {
	_, err := ReadCorpus(strings.NewReader("{\"chapter\": 1}\nnot json\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestRun_LocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := local.Create(dir)
	require.NoError(t, err)

	recs, err := ReadCorpus(strings.NewReader(corpus))
	require.NoError(t, err)

	emb := &keywordEmbedder{}
	ix := New(emb, chunker.NewSentenceChunker(3, 0), w, 2, zap.NewNop())
	stats, err := ix.Run(context.Background(), recs)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, Stats{Records: 3, Passages: 3, Dimension: 3}, stats)

	st, err := local.Open(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Len())

	q, _ := emb.Embed(context.Background(), "what is the soul?")
	res, err := st.Search(context.Background(), q, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, domain.Passage{Chapter: 2, Verse: 20, Text: "The soul is never born and never dies."}, res[0].Passage)
}

func TestRun_EmbedError(t *testing.T) {
	w, err := local.Create(t.TempDir())
	require.NoError(t, err)
	defer w.Close()

	ix := New(&keywordEmbedder{fail: true}, chunker.NewSentenceChunker(3, 0), w, 0, zap.NewNop())
	_, err = ix.Run(context.Background(), []Record{{Chapter: 1, Verse: 1, Text: "duty"}})
	assert.ErrorContains(t, err, "embed 1.1")
}

func TestRun_EmptyCorpus(t *testing.T) {
	ix := New(&keywordEmbedder{}, chunker.NewSentenceChunker(3, 0), nil, 0, zap.NewNop())
	_, err := ix.Run(context.Background(), []Record{{Text: "  "}})
	assert.Error(t, err)
}

type recordingWriter struct {
	ops []string
}

func (w *recordingWriter) Init(_ context.Context, dimension int) error {
	w.ops = append(w.ops, "init")
	return nil
}

func (w *recordingWriter) Upsert(_ context.Context, passages []domain.Passage, _ [][]float32) error {
	w.ops = append(w.ops, "upsert")
	return nil
}

func (w *recordingWriter) Commit() error {
	w.ops = append(w.ops, "commit")
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestRun_CommitsAfterLastBatch(t *testing.T) {
	recs, err := ReadCorpus(strings.NewReader(corpus))
	require.NoError(t, err)

	w := &recordingWriter{}
	_, err = New(&keywordEmbedder{}, chunker.NewSentenceChunker(3, 0), w, 2, zap.NewNop()).Run(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, []string{"init", "upsert", "upsert", "commit"}, w.ops)
}

func TestRun_NoCommitOnFailure(t *testing.T) {
	w := &recordingWriter{}
	_, err := New(&keywordEmbedder{fail: true}, chunker.NewSentenceChunker(3, 0), w, 2, zap.NewNop()).
		Run(context.Background(), []Record{{Chapter: 1, Verse: 1, Text: "duty"}})
	require.Error(t, err)
	assert.NotContains(t, w.ops, "commit")
}
