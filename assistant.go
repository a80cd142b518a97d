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


package docent

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/ai/openai"
	"github.com/poiesic/docent/answer"
	"github.com/poiesic/docent/chunker"
	"github.com/poiesic/docent/config"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/index"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/search"
)

type Assistant struct {
	mu           sync.RWMutex
	provider     ai.AIProvider
	ownsProvider bool
	builder      *ingestion.Builder
	synthesizer  *answer.Synthesizer
	live         *liveIndex
	retriever    *search.Retriever
	closed       bool
	logger       *slog.Logger
}

// Response is an answer together with the passages it was grounded on.
// Canned is set when the answer came from the override table and neither
// retrieval nor the chat model was involved.
type Response struct {
	Text    string
	Context core.RetrievedContext
	Canned  bool
}

// Stats describes the loaded index.
type Stats struct {
	Entries   int
	Sources   []string
	Model     string
	Dimension int
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	builderOpts   []ingestion.Option
	retrieverOpts []search.Option
	answerOpts    []answer.Option
	logger        *slog.Logger
}

// WithAIConfig sets the configuration of the OpenAI-compatible provider.
// Ignored when WithProvider is given.
func WithAIConfig(cfg *ai.Config) AssistantOption {
	return func(o *assistantOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses an existing provider. The assistant does not close it.
func WithProvider(p ai.AIProvider) AssistantOption {
	return func(o *assistantOptions) {
		o.provider = p
	}
}

func WithBuilderOptions(opts ...ingestion.Option) AssistantOption {
	return func(o *assistantOptions) {
		o.builderOpts = append(o.builderOpts, opts...)
	}
}

func WithRetrieverOptions(opts ...search.Option) AssistantOption {
	return func(o *assistantOptions) {
		o.retrieverOpts = append(o.retrieverOpts, opts...)
	}
}

func WithAnswerOptions(opts ...answer.Option) AssistantOption {
	return func(o *assistantOptions) {
		o.answerOpts = append(o.answerOpts, opts...)
	}
}

// WithConfig applies every section of an application config.
func WithConfig(cfg *config.AppConfig) AssistantOption {
	return func(o *assistantOptions) {
		o.aiConfig = cfg.AIConfig()
		o.builderOpts = append(o.builderOpts,
			ingestion.WithDocumentDir(cfg.DocumentDir),
			ingestion.WithIndexDir(cfg.IndexDir),
			ingestion.WithBulkSplitter(chunker.NewFromPreset(cfg.BulkPreset())),
			ingestion.WithAdHocSplitter(chunker.NewFromPreset(cfg.AdHocPreset())),
			ingestion.WithBatchSize(cfg.AI.BatchSize),
		)
		o.retrieverOpts = append(o.retrieverOpts,
			search.WithTopK(cfg.Retrieval.TopK),
			search.WithMinRelevance(cfg.MinRelevance()),
		)
		o.answerOpts = append(o.answerOpts,
			answer.WithPersona(cfg.Persona()),
			answer.WithMaxContextChars(cfg.Answer.MaxContextChars),
		)
	}
}

// WithLogger sets the logger passed down to every component.
func WithLogger(logger *slog.Logger) AssistantOption {
	return func(o *assistantOptions) {
		o.logger = logger
	}
}

// New creates an assistant. Call Initialize before asking questions.
func New(opts ...AssistantOption) (*Assistant, error) {
	options := &assistantOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	provider := options.provider
	ownsProvider := false
	if provider == nil {
		p, err := openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
		provider = p
		ownsProvider = true
	}

	closeProvider := func() {
		if ownsProvider {
			provider.Close()
		}
	}

	builderOpts := append([]ingestion.Option{ingestion.WithLogger(options.logger)}, options.builderOpts...)
	builder, err := ingestion.NewBuilder(provider.Embedder(), builderOpts...)
	if err != nil {
		closeProvider()
		return nil, err
	}

	answerOpts := append([]answer.Option{answer.WithLogger(options.logger)}, options.answerOpts...)
	synthesizer, err := answer.NewSynthesizer(provider.ChatModel(), answerOpts...)
	if err != nil {
		builder.Close()
		closeProvider()
		return nil, err
	}

	live := &liveIndex{}
	retrieverOpts := append([]search.Option{search.WithLogger(options.logger)}, options.retrieverOpts...)
	retriever, err := search.NewRetriever(live, retrieverOpts...)
	if err != nil {
		builder.Close()
		closeProvider()
		return nil, err
	}

	return &Assistant{
		provider:     provider,
		ownsProvider: ownsProvider,
		builder:      builder,
		synthesizer:  synthesizer,
		live:         live,
		retriever:    retriever,
		logger:       options.logger.With("component", "assistant"),
	}, nil
}

// Initialize loads the persisted index or builds it from the document
// folder. It returns core.ErrEmptyCorpus when there is nothing to index;
// the assistant stays usable and documents can be added with Ingest.
func (a *Assistant) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	ix, err := a.builder.Initialize(ctx)
	if err != nil {
		return err
	}
	a.swap(ix)
	return nil
}

// Chat answers query and returns only the text.
func (a *Assistant) Chat(ctx context.Context, query string) (string, error) {
	resp, err := a.Ask(ctx, query)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Ask answers query. Canned replies are checked first and cost no service
// call. Otherwise the question is embedded, the passages above the relevance
// threshold are retrieved, and the chat model answers from them alone. When
// no passage is relevant the no-information reply is returned without
// calling the chat model.
func (a *Assistant) Ask(ctx context.Context, query string) (*Response, error) {
	if text, ok := a.synthesizer.Override(query); ok {
		a.logger.Debug("canned reply", "query", query)
		return &Response{Text: text, Canned: true}, nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, ErrClosed
	}
	if a.live.ix == nil {
		return nil, ErrNoIndex
	}

	rc, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	text, err := a.synthesizer.Answer(ctx, query, rc)
	if err != nil {
		return nil, err
	}
	return &Response{Text: text, Context: rc}, nil
}

// Ingest adds docs to the live index and persists it. Questions asked
// while the update runs wait for it.
func (a *Assistant) Ingest(ctx context.Context, docs []core.Document) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	ix, err := a.builder.BuildOrUpdate(ctx, a.live.ix, docs, ingestion.ModeIncremental)
	if err != nil {
		return err
	}
	a.swap(ix)
	return nil
}

// IngestFile loads a PDF or text file and ingests its pages.
func (a *Assistant) IngestFile(ctx context.Context, path string) error {
	docs, err := ingestion.LoadFile(ctx, path)
	if err != nil {
		return err
	}
	return a.Ingest(ctx, docs)
}

// Rebuild discards the index and builds a new one from the document folder.
func (a *Assistant) Rebuild(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	ix, err := a.builder.BuildOrUpdate(ctx, nil, nil, ingestion.ModeInitial)
	if err != nil {
		return err
	}
	a.swap(ix)
	return nil
}

// Watch ingests files added to or changed in the document folder until ctx
// is done.
func (a *Assistant) Watch(ctx context.Context, opts ...ingestion.WatcherOption) error {
	opts = append([]ingestion.WatcherOption{ingestion.WithWatcherLogger(a.logger)}, opts...)
	w, err := ingestion.NewWatcher(a.builder.DocumentDir(), a.Ingest, opts...)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx)
}

func (a *Assistant) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ix := a.live.ix
	if ix == nil {
		return Stats{Model: a.provider.Embedder().Model()}
	}
	return Stats{
		Entries:   ix.Len(),
		Sources:   ix.Sources(),
		Model:     ix.Model(),
		Dimension: ix.Dimension(),
	}
}

func (a *Assistant) DocumentDir() string {
	return a.builder.DocumentDir()
}

// swap installs ix as the live index. Callers hold the write lock.
func (a *Assistant) swap(ix *index.VectorIndex) {
	if ix == a.live.ix {
		return
	}
	if a.live.ix != nil {
		a.live.ix.Release()
	}
	a.live.ix = ix
}

// liveIndex lets the retriever follow index swaps. Reads happen under the
// assistant's read lock.
type liveIndex struct {
	ix *index.VectorIndex
}

func (l *liveIndex) Search(ctx context.Context, query string, k int) ([]core.ScoredEntry, error) {
	if l.ix == nil {
		return nil, ErrNoIndex
	}
	return l.ix.Search(ctx, query, k)
}

func (a *Assistant) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	if a.live.ix != nil {
		a.live.ix.Release()
		a.live.ix = nil
	}

	if err := a.builder.Close(); err != nil {
		a.logger.Error("error closing index builder", "err", err)
		return err
	}

	if a.ownsProvider {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("error closing AI provider", "err", err)
			return err
		}
	}
	return nil
}
