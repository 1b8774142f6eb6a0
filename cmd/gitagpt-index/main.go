package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/app"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/chunker"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/config"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/indexer"
	logpkg "github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/logger"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/metrics"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/vectorstore"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/vectorstore/local"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, corpusPath, out string
	var batch, sentences, overlap int
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&corpusPath, "corpus", "", "JSONL corpus, one {\"chapter\",\"verse\",\"text\"} object per line")
	flag.StringVar(&out, "out", "", "Index directory for the local store (default: vector_store.local.path)")
	flag.IntVar(&batch, "batch", indexer.DefaultBatchSize, "Passages written per batch")
	flag.IntVar(&sentences, "sentences", 5, "Sentences per passage window for long commentary")
	flag.IntVar(&overlap, "overlap", 1, "Sentences shared by consecutive windows")
	flag.Parse()
	if corpusPath == "" {
		fmt.Println("Usage: gitagpt-index --corpus verses.jsonl [--out bhagvatgeeta_new] [--config=config.yaml]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	logger, err := logpkg.NewLogger(cfg.Env, cfg.Logging.Level)
	if err != nil {
		fatal("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	metrics.Register()

	f, err := os.Open(corpusPath)
	if err != nil {
		fatal("open corpus: %v", err)
	}
	records, err := indexer.ReadCorpus(f)
	f.Close()
	if err != nil {
		fatal("read corpus: %v", err)
	}

	emb, err := app.NewEmbedder(cfg, os.LookupEnv, logger)
	if err != nil {
		fatal("embedder: %v", err)
	}

	var w vectorstore.Writer
	switch cfg.VectorStore.Type {
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		w = qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		})
	default:
		if out == "" {
			out = cfg.VectorStore.Local.Path
		}
		w, err = local.Create(out)
		if err != nil {
			fatal("create index: %v", err)
		}
	}
	defer func() { _ = w.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	ix := indexer.New(emb, chunker.NewSentenceChunker(sentences, overlap), w, batch, logger)
	stats, err := ix.Run(ctx, records)
	if err != nil {
		logger.Error("indexing failed", zap.Error(err))
		_ = w.Close()
		os.Exit(1)
	}
	logger.Info("index built",
		zap.String("store", cfg.VectorStore.Type),
		zap.String("out", out),
		zap.Int("records", stats.Records),
		zap.Int("passages", stats.Passages),
		zap.Int("dimension", stats.Dimension),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
