// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/docent"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/ai/openai"
	"github.com/poiesic/docent/config"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/reembed"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docent",
		Usage: "Answer questions about a country from its reference documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   config.DefaultPath,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file loaded before reading the configuration",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "docs",
				Usage: "Document folder (overrides document_dir)",
			},
			&cli.StringFlag{
				Name:  "index",
				Usage: "Index directory (overrides index_dir)",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Load the index, building it from the document folder if needed",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Discard the persisted index and rebuild it from the document folder",
					},
				},
			},
			{
				Name:      "add",
				Usage:     "Add PDF or text files to the index",
				ArgsUsage: "FILE...",
				Action:    addCommand,
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "sources",
						Aliases: []string{"s"},
						Usage:   "Print the passages the answer was grounded on",
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Answer questions read from standard input",
				Action: chatCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "sources",
						Aliases: []string{"s"},
						Usage:   "Print the passages each answer was grounded on",
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Index files as they are added to the document folder",
				Action: watchCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "settle",
						Usage: "Quiet period before a changed file is loaded",
						Value: 500 * time.Millisecond,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Describe the persisted index",
				Action: statsCommand,
			},
			{
				Name:   "init-config",
				Usage:  "Write the default configuration file",
				Action: initConfigCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed every indexed passage with a new embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (defaults to the configured host)",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of passages to process in each batch",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N passages",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

func setup(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	if err := config.LoadEnv(c.String("env-file")); err != nil {
		return fmt.Errorf("loading %s: %w", c.String("env-file"), err)
	}
	return nil
}

// loadConfig reads the configuration file and applies the global flags on top.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if dir := c.String("docs"); dir != "" {
		cfg.DocumentDir = dir
	}
	if dir := c.String("index"); dir != "" {
		cfg.IndexDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newAssistant(c *cli.Context) (*docent.Assistant, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	assistant, err := docent.New(docent.WithConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant: %w", err)
	}
	return assistant, nil
}

// openAssistant creates an assistant and loads or builds its index. An empty
// document folder is not an error here: the assistant still answers canned
// questions and accepts new documents.
func openAssistant(c *cli.Context) (*docent.Assistant, error) {
	assistant, err := newAssistant(c)
	if err != nil {
		return nil, err
	}

	if err := assistant.Initialize(c.Context); err != nil {
		if !errors.Is(err, core.ErrEmptyCorpus) {
			assistant.Close()
			return nil, err
		}
		slog.Warn("document folder is empty", "dir", assistant.DocumentDir())
	}
	return assistant, nil
}

func indexCommand(c *cli.Context) error {
	if c.Bool("rebuild") {
		return rebuildIndex(c)
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	printStats(c.App.Writer, assistant.Stats())
	return nil
}

// rebuildIndex skips loading so that an unreadable index can be replaced.
func rebuildIndex(c *cli.Context) error {
	assistant, err := newAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	if err := assistant.Rebuild(c.Context); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	printStats(c.App.Writer, assistant.Stats())
	return nil
}

func addCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one file is required")
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	for _, path := range c.Args().Slice() {
		if err := assistant.IngestFile(c.Context, path); err != nil {
			return fmt.Errorf("adding %s: %w", path, err)
		}
		fmt.Fprintf(c.App.Writer, "Added %s\n", path)
	}

	printStats(c.App.Writer, assistant.Stats())
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	return answer(c.Context, assistant, question, c.App.Writer, c.Bool("sources"), assistant.DocumentDir())
}

func chatCommand(c *cli.Context) error {
	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return chatLoop(ctx, assistant, c.App.Reader, c.App.Writer, c.Bool("sources"), assistant.DocumentDir())
}

func watchCommand(c *cli.Context) error {
	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(c.App.ErrWriter, "Watching %s (Ctrl-C to stop)\n", assistant.DocumentDir())
	err = assistant.Watch(ctx, ingestion.WithSettleDelay(c.Duration("settle")))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func statsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !storage.Exists(cfg.IndexDir) {
		return fmt.Errorf("no index at %s", cfg.IndexDir)
	}

	repo, err := badger.NewRepository(cfg.IndexDir)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer repo.Close()

	manifest, err := repo.Manifest(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}
	printManifest(c.App.Writer, cfg.IndexDir, manifest)
	return nil
}

func initConfigCommand(c *cli.Context) error {
	path := c.String("config")
	if !c.Bool("force") {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
	}
	if err := config.Save(path, config.Default()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if !storage.Exists(cfg.IndexDir) {
		return fmt.Errorf("no index at %s", cfg.IndexDir)
	}

	embeddingHost := c.String("embedding-host")
	if embeddingHost == "" {
		embeddingHost = cfg.AI.EmbeddingHost
	}

	repo, err := badger.NewRepository(cfg.IndexDir)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer repo.Close()

	aiConfig := cfg.AIConfig()
	ai.WithEmbeddingHost(embeddingHost)(aiConfig)
	ai.WithEmbeddingModel(c.String("embedding-model"))(aiConfig)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedder, err := reembed.NewReembedder(repo, embedder, reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Index: %s\n", cfg.IndexDir)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", embeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(c.App.ErrWriter)

	manifest, err := reembedder.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	if manifest != nil {
		printManifest(c.App.Writer, cfg.IndexDir, manifest)
	}
	return nil
}

// asker is the part of the assistant the interactive commands use.
type asker interface {
	Ask(ctx context.Context, query string) (*docent.Response, error)
}

func answer(ctx context.Context, a asker, question string, out io.Writer, sources bool, docDir string) error {
	resp, err := a.Ask(ctx, question)
	if errors.Is(err, docent.ErrNoIndex) {
		fmt.Fprintf(out, "No documents are indexed yet. Add PDF or text files to %s, or use `docent add`.\n", docDir)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, strings.TrimSpace(resp.Text))
	if sources && !resp.Canned {
		printSources(out, resp.Context)
	}
	return nil
}

// chatLoop answers one question per input line until EOF, "exit" or "quit".
// Service failures are reported and the loop continues.
func chatLoop(ctx context.Context, a asker, in io.Reader, out io.Writer, sources bool, docDir string) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := answer(ctx, a, question, out, sources, docDir); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("error answering question", "err", err)
			fmt.Fprintln(out, "Sorry, something went wrong. Please try again.")
		}
	}
}

func printSources(out io.Writer, rc core.RetrievedContext) {
	if rc.IsEmpty() {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sources:")
	for _, e := range rc.Entries {
		location := e.Entry.Source
		if e.Entry.Page > 0 {
			location = fmt.Sprintf("%s p.%d", location, e.Entry.Page)
		}
		fmt.Fprintf(out, "  [%.2f] %s\n", e.Score, location)
	}
}

func printStats(out io.Writer, stats docent.Stats) {
	fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
	fmt.Fprintf(out, "Embedding model: %s\n", stats.Model)
	if stats.Dimension > 0 {
		fmt.Fprintf(out, "Dimension: %d\n", stats.Dimension)
	}
	fmt.Fprintf(out, "Sources: %d\n", len(stats.Sources))
	for _, s := range stats.Sources {
		fmt.Fprintf(out, "  %s\n", s)
	}
}

func printManifest(out io.Writer, dir string, m *core.Manifest) {
	fmt.Fprintf(out, "Index: %s\n", dir)
	fmt.Fprintf(out, "Entries: %d\n", m.Count)
	fmt.Fprintf(out, "Embedding model: %s\n", m.EmbeddingModel)
	fmt.Fprintf(out, "Dimension: %d\n", m.Dimension)
	fmt.Fprintf(out, "Generation: %d\n", m.Generation)
	fmt.Fprintf(out, "Updated: %s\n", m.UpdatedAt.Format(time.RFC3339))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
