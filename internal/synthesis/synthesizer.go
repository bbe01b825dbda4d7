// Package synthesis generates documentation and answers with an
// OpenAI-compatible chat completion API via langchaingo.
//
// Prompts are rendered from embedded templates: a persona plus the
// retrieved context and the subject (changed code or a developer
// question). Generation is grounded in the context so answers stay
// close to documentation already in the index.
package synthesis

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fyrsmithlabs/docweaver/internal/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptySubject indicates an empty code block or question.
	ErrEmptySubject = errors.New("empty subject")

	// ErrGeneration indicates the completion call failed or returned
	// no content.
	ErrGeneration = errors.New("generation failed")
)

// System messages sent alongside each rendered prompt.
const (
	documentationSystem = "You are an assistant responsible for writing technical documentation."
	assistantSystem     = "You are an assistant responsible for helping developers with questions about documentation."
)

// Config holds configuration for the synthesizer.
type Config struct {
	// BaseURL is the base URL of the OpenAI-compatible completion
	// API.
	BaseURL string

	// Model is the chat completion model.
	Model string

	// APIKey authenticates against the API. Optional for local
	// OpenAI-compatible servers.
	APIKey config.Secret

	// Temperature controls sampling randomness. Default: 0.7.
	Temperature float64

	// RequestTimeout bounds each completion call. Default: 120s.
	RequestTimeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 120 * time.Second
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be in [0, 2], got %g", ErrInvalidConfig, c.Temperature)
	}
	return nil
}

// promptInput feeds the prompt templates.
type promptInput struct {
	Subject string
	Context string
}

// Synthesizer renders prompts and calls the completion model.
type Synthesizer struct {
	llm       *openai.LLM
	config    Config
	templates *template.Template
	metrics   *Metrics
}

// NewSynthesizer creates a Synthesizer with the given configuration.
func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	apiKey := cfg.APIKey.Value()
	if apiKey == "" {
		// langchaingo requires a token even for keyless servers.
		apiKey = "not-needed"
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	templates, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing prompt templates: %w", err)
	}

	return &Synthesizer{llm: llm, config: cfg, templates: templates, metrics: NewMetrics()}, nil
}

// GenerateDocumentation produces documentation for the given code,
// using previously indexed documentation as a style reference. The
// context may be empty when the index has no similar entries yet.
func (s *Synthesizer) GenerateDocumentation(ctx context.Context, code, docContext string) (string, error) {
	return s.generate(ctx, "documentation.tmpl", documentationSystem, code, docContext)
}

// AnswerQuestion answers a developer question grounded only in the
// retrieved documentation context.
func (s *Synthesizer) AnswerQuestion(ctx context.Context, question, docContext string) (string, error) {
	return s.generate(ctx, "assistant.tmpl", assistantSystem, question, docContext)
}

func (s *Synthesizer) generate(ctx context.Context, templateName, system, subject, docContext string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", ErrEmptySubject
	}

	var prompt strings.Builder
	err := s.templates.ExecuteTemplate(&prompt, templateName, promptInput{
		Subject: subject,
		Context: docContext,
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", templateName, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, system),
			llms.TextParts(llms.ChatMessageTypeHuman, prompt.String()),
		},
		llms.WithTemperature(s.config.Temperature),
	)
	if err != nil {
		s.metrics.RecordGeneration(ctx, s.config.Model, templateName, time.Since(start), err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		err := fmt.Errorf("%w: model returned no content", ErrGeneration)
		s.metrics.RecordGeneration(ctx, s.config.Model, templateName, time.Since(start), err)
		return "", err
	}
	s.metrics.RecordGeneration(ctx, s.config.Model, templateName, time.Since(start), nil)

	return resp.Choices[0].Content, nil
}
