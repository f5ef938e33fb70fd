package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/bizlens/internal/config"
	"github.com/theirongolddev/bizlens/internal/insight"
	"github.com/theirongolddev/bizlens/internal/store"
	"github.com/theirongolddev/bizlens/internal/table"
)

// InsightOptions converts the [llm] and [insights] config sections. A non-empty
// mode overrides the configured one.
func InsightOptions(cfg config.Config, mode string) (insight.Options, error) {
	if mode == "" {
		mode = cfg.Insights.Mode
	}
	m, err := insight.ParseMode(mode)
	if err != nil {
		return insight.Options{}, err
	}
	return insight.Options{
		Mode:         m,
		SampleRows:   cfg.Insights.SampleRows,
		MaxColumns:   cfg.Insights.MaxColumns,
		PromptBudget: cfg.Insights.PromptBudget,
		Model:        cfg.LLM.Model,
		Temperature:  float32(cfg.LLM.Temperature),
		MaxTokens:    cfg.LLM.MaxTokens,
		Seed:         cfg.Insights.Seed,
	}, nil
}

// NewGenerator builds an insight generator from config. When [llm] discover is
// set and a credential exists, the model is chosen by listing available models.
func NewGenerator(ctx context.Context, cfg config.Config, mode string, log *zap.Logger) (*insight.Generator, error) {
	opts, err := InsightOptions(cfg, mode)
	if err != nil {
		return nil, err
	}
	gen := insight.New(insight.Config{
		APIKey:  config.GetAPIKey(cfg),
		BaseURL: cfg.LLM.BaseURL,
		Logger:  log,
	}, opts)
	if cfg.LLM.Discover && gen.HasCredential() {
		gen.UseModel(gen.DiscoverModel(ctx))
	}
	return gen, nil
}

// Asker generates insights and records them in the journal. A nil journal
// disables recording.
type Asker struct {
	Gen     *insight.Generator
	Journal *store.Journal
	Log     *zap.Logger
}

// Ask generates an answer for t and question and journals it unless no
// credential was configured. Journal failures are logged, never returned.
func (a *Asker) Ask(ctx context.Context, t *table.Table, question string) insight.Answer {
	start := time.Now()
	ans := a.Gen.Generate(ctx, t, question)
	elapsed := time.Since(start)

	if a.Journal == nil || errors.Is(ans.Err, insight.ErrMissingCredential) {
		return ans
	}
	_, err := a.Journal.Record(store.Entry{
		Dataset:  t.Name,
		Rows:     t.Nrow(),
		Columns:  t.Ncol(),
		Mode:     string(a.Gen.Options().Mode),
		Model:    ans.Model,
		Question: question,
		Answer:   ans.Text,
		OK:       ans.OK(),
		Elapsed:  elapsed,
	})
	if err != nil && a.Log != nil {
		a.Log.Warn("journal write failed", zap.Error(err))
	}
	return ans
}

// OpenJournal opens the history database unless disabled.
func OpenJournal(cfg config.Config, disabled bool) (*store.Journal, error) {
	if disabled || !cfg.History.Enabled {
		return nil, nil
	}
	return store.Open(config.HistoryPath())
}
