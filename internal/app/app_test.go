package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/config"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/vectorstore"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{1}, nil }

type closingEmbedder struct {
	fakeEmbedder
	closed *int
}

func (c closingEmbedder) Close() { *c.closed++ }

type fakeStorage struct{ closed bool }

func (f *fakeStorage) Search(context.Context, []float32, int) ([]domain.SearchResult, error) {
	return []domain.SearchResult{{Passage: domain.Passage{Chapter: 2, Verse: 47, Text: "Chapter 2 Verse 47: You have the right to perform your duties..."}}}, nil
}

func (f *fakeStorage) Close() error {
	f.closed = true
	return nil
}

type fakeCompleter struct{ prompt string }

func (f *fakeCompleter) Complete(_ context.Context, p string) (string, error) {
	f.prompt = p
	return "O Partha, do your duty. Jai Shri Krishna", nil
}

type counting struct {
	embedder, storage, completer int
	store                        *fakeStorage
	comp                         *fakeCompleter
	storageErr                   error
}

func (c *counting) providers() Providers {
	c.store = &fakeStorage{}
	c.comp = &fakeCompleter{}
	return Providers{
		Embedder: func(context.Context) (domain.Embedder, error) {
			c.embedder++
			return fakeEmbedder{}, nil
		},
		Storage: func(context.Context) (vectorstore.Storage, error) {
			c.storage++
			if c.storageErr != nil {
				return nil, c.storageErr
			}
			return c.store, nil
		},
		Completer: func(context.Context) (domain.Completer, error) {
			c.completer++
			return c.comp, nil
		},
	}
}

func lookupFrom(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestNew_GateBlocksWithoutCredential(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"absent": {},
		"empty":  {"GROQ_API_KEY": ""},
	} {
		t.Run(name, func(t *testing.T) {
			c := &counting{}
			a, err := New(config.Default(), lookupFrom(env), c.providers(), zap.NewNop())

			assert.Nil(t, a)
			assert.ErrorIs(t, err, ErrMissingCredential)
			assert.Contains(t, err.Error(), "GROQ_API_KEY missing in .env")
			assert.Zero(t, c.embedder+c.storage+c.completer)
		})
	}
}

func TestNew_LazyUntilFirstUse(t *testing.T) {
	c := &counting{}
	a, err := New(config.Default(), lookupFrom(map[string]string{"GROQ_API_KEY": "gsk"}), c.providers(), zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, c.embedder+c.storage+c.completer)

	require.NoError(t, a.Load(context.Background()))
	require.NoError(t, a.Load(context.Background()))
	_, err = a.Ask(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, 1, c.embedder)
	assert.Equal(t, 1, c.storage)
	assert.Equal(t, 1, c.completer)

	require.NoError(t, a.Close())
	assert.True(t, c.store.closed)
}

func TestApp_FailedLoadRetries(t *testing.T) {
	c := &counting{storageErr: errors.New("index not found")}
	a, err := New(config.Default(), lookupFrom(map[string]string{"GROQ_API_KEY": "gsk"}), c.providers(), zap.NewNop())
	require.NoError(t, err)

	assert.Error(t, a.Load(context.Background()))
	c.storageErr = nil
	assert.NoError(t, a.Load(context.Background()))
	assert.Equal(t, 2, c.storage)
}

func TestApp_FailedLoadReleasesBuiltProviders(t *testing.T) {
	var built, closed int
	store := &fakeStorage{}
	completerErr := errors.New("completer down")
	providers := Providers{
		Embedder: func(context.Context) (domain.Embedder, error) {
			built++
			return closingEmbedder{closed: &closed}, nil
		},
		Storage: func(context.Context) (vectorstore.Storage, error) {
			return store, nil
		},
		Completer: func(context.Context) (domain.Completer, error) {
			return nil, completerErr
		},
	}
	a, err := New(config.Default(), lookupFrom(map[string]string{"GROQ_API_KEY": "gsk"}), providers, zap.NewNop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, a.Load(context.Background()), completerErr)
	}
	assert.Equal(t, 3, built)
	assert.Equal(t, 3, closed)
	assert.True(t, store.closed)

	providers.Storage = func(context.Context) (vectorstore.Storage, error) {
		return nil, errors.New("index not found")
	}
	a, err = New(config.Default(), lookupFrom(map[string]string{"GROQ_API_KEY": "gsk"}), providers, zap.NewNop())
	require.NoError(t, err)
	assert.Error(t, a.Load(context.Background()))
	assert.Equal(t, 4, closed)
}

func TestApp_SessionEndToEnd(t *testing.T) {
	c := &counting{}
	a, err := New(config.Default(), lookupFrom(map[string]string{"GROQ_API_KEY": "gsk"}), c.providers(), zap.NewNop())
	require.NoError(t, err)

	s := a.NewSession("local")
	ans, err := s.Submit(context.Background(), "What is the Gita's view on duty?")
	require.NoError(t, err)
	s.Record(ans.Text)

	assert.Equal(t, "O Partha, do your duty. Jai Shri Krishna", ans.Text)
	assert.Contains(t, c.comp.prompt, "Chapter 2 Verse 47: You have the right to perform your duties...")
	assert.Len(t, s.Turns(), 2)
}

func TestLazy_Memoizes(t *testing.T) {
	calls := 0
	l := NewLazy(func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	assert.False(t, l.Built())
	for i := 0; i < 3; i++ {
		v, err := l.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.True(t, l.Built())
	assert.Equal(t, 1, calls)
}
