// Package insight asks a hosted chat-completion model for business insights
// about a table. Failures are returned as readable text, never as panics.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/theirongolddev/bizlens/internal/table"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is used when no model is configured or discovery fails.
	DefaultModel = "llama-3.3-70b-versatile"

	discoveryTimeout = 10 * time.Second

	// maxSampleRows and maxSampleColumns cap the sample-mode grid.
	maxSampleRows    = 10
	maxSampleColumns = 10
)

// modelFamilies are matched in order against listed model ids.
var modelFamilies = []string{"llama-3.3-70b", "llama-3.1-70b", "llama3-70b", "mixtral", "gemma"}

var (
	// ErrMissingCredential means no API key was configured. No request is made.
	ErrMissingCredential = errors.New("insight: missing API key")
	// ErrEmptyResponse means the service answered without any choices.
	ErrEmptyResponse = errors.New("insight: response contained no choices")
)

// ServiceError is any failure talking to the chat-completion service.
// StatusCode is zero for transport and decoding failures.
type ServiceError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Mode selects how the table is presented to the model.
type Mode string

const (
	// ModeSummary sends describe() output plus the first three rows.
	ModeSummary Mode = "summary"
	// ModeSample sends a random row sample restricted to a column cap.
	ModeSample Mode = "sample"
)

// ParseMode accepts "summary" or "sample", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSummary, "":
		return ModeSummary, nil
	case ModeSample:
		return ModeSample, nil
	default:
		return "", fmt.Errorf("unknown insight mode %q (want summary or sample)", s)
	}
}

// Options configures prompt construction and the completion request.
type Options struct {
	Mode         Mode
	SampleRows   int
	MaxColumns   int
	PromptBudget int
	Model        string
	Temperature  float32
	MaxTokens    int
	Seed         uint64 // zero picks a random seed
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		Mode:         ModeSummary,
		SampleRows:   10,
		MaxColumns:   10,
		PromptBudget: 4000,
		Model:        DefaultModel,
		Temperature:  0.7,
		MaxTokens:    700,
	}
}

// Config holds connection settings.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Answer is the outcome of a generation. On success Text is the model output
// verbatim and Err is nil; otherwise Text is a diagnostic for display.
type Answer struct {
	Text  string
	Model string
	Err   error
}

// OK reports whether the answer came from the model.
func (a Answer) OK() bool { return a.Err == nil }

// Generator builds prompts and sends them to the chat-completion service.
// It is safe for concurrent use.
type Generator struct {
	opts   Options
	client *openai.Client // nil without a credential
	log    *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Generator. Zero or negative options fall back to
// DefaultOptions and the sample grid is capped at 10 rows by 10 columns.
func New(cfg Config, opts Options) *Generator {
	def := DefaultOptions()
	if opts.Mode == "" {
		opts.Mode = def.Mode
	}
	if opts.SampleRows <= 0 {
		opts.SampleRows = def.SampleRows
	}
	opts.SampleRows = min(opts.SampleRows, maxSampleRows)
	if opts.MaxColumns <= 0 {
		opts.MaxColumns = def.MaxColumns
	}
	opts.MaxColumns = min(opts.MaxColumns, maxSampleColumns)
	if opts.PromptBudget <= 0 {
		opts.PromptBudget = def.PromptBudget
	}
	if opts.Model == "" {
		opts.Model = def.Model
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	g := &Generator{
		opts: opts,
		log:  cfg.Logger,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	if g.log == nil {
		g.log = zap.NewNop()
	}

	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		oc := openai.DefaultConfig(key)
		oc.BaseURL = DefaultBaseURL
		if cfg.BaseURL != "" {
			oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		if cfg.HTTPClient != nil {
			oc.HTTPClient = cfg.HTTPClient
		}
		g.client = openai.NewClientWithConfig(oc)
	}
	return g
}

// Options returns the effective options.
func (g *Generator) Options() Options { return g.opts }

// HasCredential reports whether an API key was configured.
func (g *Generator) HasCredential() bool { return g.client != nil }

// Generate asks the model about t. An empty question requests general insights.
func (g *Generator) Generate(ctx context.Context, t *table.Table, question string) Answer {
	if g.client == nil {
		return Answer{
			Text: "Missing API key. Set GROQ_API_KEY (environment or .env) or run `bizlens setup` to enable AI insights.",
			Err:  ErrMissingCredential,
		}
	}

	prompt, err := g.Prompt(t, question)
	if err != nil {
		return Answer{Text: "Error building prompt: " + err.Error(), Err: err}
	}
	return g.complete(ctx, prompt)
}

func (g *Generator) complete(ctx context.Context, prompt string) Answer {
	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.opts.Model,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	g.log.Debug("chat completion",
		zap.String("model", g.opts.Model),
		zap.Int("prompt_chars", len([]rune(prompt))),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		se := classify(err)
		return Answer{Text: "Error generating insights: " + se.Error(), Model: g.opts.Model, Err: se}
	}
	if len(resp.Choices) == 0 {
		se := &ServiceError{Message: "empty response from model", Err: ErrEmptyResponse}
		return Answer{Text: "Error generating insights: " + se.Error(), Model: g.opts.Model, Err: se}
	}
	return Answer{Text: resp.Choices[0].Message.Content, Model: g.opts.Model}
}

func classify(err error) *ServiceError {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		synErr *json.SyntaxError
		typErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &apiErr):
		return &ServiceError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	case errors.As(err, &reqErr):
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &ServiceError{StatusCode: reqErr.HTTPStatusCode, Message: msg, Err: err}
	case errors.As(err, &synErr), errors.As(err, &typErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &ServiceError{Message: "malformed response: " + err.Error(), Err: err}
	default:
		return &ServiceError{Message: err.Error(), Err: err}
	}
}

// Models lists the model ids available to the credential.
func (g *Generator) Models(ctx context.Context) ([]string, error) {
	if g.client == nil {
		return nil, ErrMissingCredential
	}
	list, err := g.client.ListModels(ctx)
	if err != nil {
		return nil, classify(err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// DiscoverModel picks the first listed model matching a known chat family,
// falling back to DefaultModel on any failure. The lookup is bounded by a
// 10-second timeout.
func (g *Generator) DiscoverModel(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	defer cancel()

	ids, err := g.Models(ctx)
	if err != nil {
		g.log.Debug("model discovery failed", zap.Error(err))
		return DefaultModel
	}
	return PickModel(ids)
}

// PickModel returns the first id containing a known family substring, trying
// families in preference order.
func PickModel(ids []string) string {
	for _, fam := range modelFamilies {
		for _, id := range ids {
			if strings.Contains(strings.ToLower(id), fam) {
				return id
			}
		}
	}
	return DefaultModel
}

// UseModel switches the model used for later requests. Call it before the
// Generator is shared between goroutines.
func (g *Generator) UseModel(model string) {
	if model != "" {
		g.opts.Model = model
	}
}
