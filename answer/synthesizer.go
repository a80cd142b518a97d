package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// DefaultMaxContextChars bounds the context block sent to the model.
const DefaultMaxContextChars = 6000

// Synthesizer writes grounded answers with a chat model.
type Synthesizer struct {
	chat            ai.ChatModel
	persona         Persona
	overrides       []Override
	customOverrides bool
	maxContextChars int
	logger          *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer) error

// WithPersona sets the persona. Empty fields keep their defaults.
func WithPersona(p Persona) Option {
	return func(s *Synthesizer) error {
		s.persona = p.withDefaults()
		return nil
	}
}

// WithOverrides replaces the canned reply table. Overrides are tried in order.
// Pass no overrides to disable them.
func WithOverrides(overrides ...Override) Option {
	return func(s *Synthesizer) error {
		s.overrides = overrides
		s.customOverrides = true
		return nil
	}
}

// WithMaxContextChars bounds the context block in runes.
// Default is DefaultMaxContextChars.
func WithMaxContextChars(n int) Option {
	return func(s *Synthesizer) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidContextLimit, n)
		}
		s.maxContextChars = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

func NewSynthesizer(chat ai.ChatModel, opts ...Option) (*Synthesizer, error) {
	if chat == nil {
		return nil, ErrChatModelRequired
	}

	s := &Synthesizer{
		chat:            chat,
		persona:         DefaultPersona(),
		maxContextChars: DefaultMaxContextChars,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if !s.customOverrides {
		s.overrides = DefaultOverrides(s.persona)
	}
	s.logger = s.logger.With("component", "synthesizer")

	return s, nil
}

func (s *Synthesizer) Persona() Persona {
	return s.persona
}

// Override returns the canned reply for question, if one applies.
func (s *Synthesizer) Override(question string) (string, bool) {
	o, ok := matchOverride(s.overrides, question)
	if !ok {
		return "", false
	}
	s.logger.Debug("canned reply", "override", o.Name)
	return o.Response, true
}

// Answer asks the chat model to answer question from rc alone and returns
// its text unchanged. An empty rc yields the no-information message
// without calling the model. Model failures wrap core.ErrGeneration.
func (s *Synthesizer) Answer(ctx context.Context, question string, rc core.RetrievedContext) (string, error) {
	if rc.IsEmpty() {
		s.logger.Debug("no relevant context", "question", question)
		return s.persona.NoInformation, nil
	}

	block, used := s.contextBlock(rc)
	user := groundingPrompt(s.persona, block, question)

	s.logger.Debug("generating answer", "passages", used, "context_chars", len([]rune(block)))
	text, err := s.chat.Generate(ctx, systemPrompt(s.persona), user)
	if err != nil {
		s.logger.Error("error generating answer", "err", err)
		return "", fmt.Errorf("%w: %w", core.ErrGeneration, err)
	}
	return text, nil
}

// contextBlock joins whole passages in retrieved order until the next one
// would exceed the limit. The first passage is always included.
func (s *Synthesizer) contextBlock(rc core.RetrievedContext) (string, int) {
	const sep = "\n\n"

	var sb strings.Builder
	size, used := 0, 0
	for _, text := range rc.Texts() {
		n := len([]rune(text))
		if used > 0 {
			n += len(sep)
		}
		if used > 0 && size+n > s.maxContextChars {
			break
		}
		if used > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(text)
		size += n
		used++
	}
	return sb.String(), used
}
