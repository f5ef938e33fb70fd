package insight

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/theirongolddev/bizlens/internal/table"
)

const systemPrompt = "You are an expert business data analyst."

const insightInstructions = `You are a senior business data analyst. Analyze the following dataset summary and sample data.
Give 5-7 concise insights in plain English about:
- Key trends
- Outliers
- Correlations
- Business opportunities`

// prompt is a user message split so that only the data section is cut when
// the budget runs out. tail carries the question and is kept whole.
type prompt struct {
	data string
	tail string
}

// fit renders p in at most budget characters, trimming data before tail.
func (p prompt) fit(budget int) string {
	tailLen := utf8.RuneCountInString(p.tail)
	if tailLen >= budget {
		return Truncate(p.tail, budget)
	}
	return Truncate(p.data, budget-tailLen) + p.tail
}

// Prompt builds the user message for t and question within the prompt
// budget. question may be empty.
func (g *Generator) Prompt(t *table.Table, question string) (string, error) {
	var (
		p   prompt
		err error
	)
	switch g.opts.Mode {
	case ModeSample:
		p, err = g.samplePrompt(t, question)
	default:
		p, err = summaryPrompt(t, question)
	}
	if err != nil {
		return "", err
	}
	return p.fit(g.opts.PromptBudget), nil
}

func summaryPrompt(t *table.Table, question string) (prompt, error) {
	head, err := t.Head(3).CSV()
	if err != nil {
		return prompt{}, fmt.Errorf("formatting sample rows: %w", err)
	}

	var b strings.Builder
	b.WriteString(insightInstructions)
	b.WriteString("\n\n=== Dataset Summary ===\n")
	b.WriteString(t.Describe())
	b.WriteString("\n=== Sample Data ===\n")
	b.WriteString(head)

	var tail string
	if q := strings.TrimSpace(question); q != "" {
		tail = "\n=== Question ===\n" + q + "\nAnswer the question directly, using the data above.\n"
	}
	return prompt{data: b.String(), tail: tail}, nil
}

func (g *Generator) samplePrompt(t *table.Table, question string) (prompt, error) {
	g.mu.Lock()
	sample := t.Sample(g.rng, g.opts.SampleRows, g.opts.MaxColumns)
	g.mu.Unlock()

	data, err := sample.CSV()
	if err != nil {
		return prompt{}, fmt.Errorf("formatting sample: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dataset %q has %d rows and %d columns. Here is a random sample (CSV):\n\n",
		t.Name, t.Nrow(), t.Ncol())
	b.WriteString(data)

	tail := "\n" + insightInstructions + "\n"
	if q := strings.TrimSpace(question); q != "" {
		tail = fmt.Sprintf("\nQuestion: %s\nAnswer concisely, based only on the data.\n", q)
	}
	return prompt{data: b.String(), tail: tail}, nil
}

// Truncate cuts s to at most limit characters. A non-positive limit yields "".
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
