package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/theirongolddev/bizlens/internal/table"
)

const salesCSV = `date,revenue,profit,region
2024-01-01,100,10,north
2024-01-02,200,20,south
2024-01-03,300,30,east
2024-01-04,400,40,west
`

func load(t *testing.T, data string) *table.Table {
	t.Helper()
	tbl, err := table.Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tbl
}

type fakeService struct {
	calls    atomic.Int32
	lastBody map[string]any
	status   int
	body     string
	models   []string
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		w.Header().Set("Content-Type", "application/json")
		if f.status != 0 {
			w.WriteHeader(f.status)
		}
		_, _ = w.Write([]byte(f.body))
	})
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		var data []string
		for _, id := range f.models {
			data = append(data, fmt.Sprintf(`{"id":%q,"object":"model","owned_by":"test"}`, id))
		}
		fmt.Fprintf(w, `{"object":"list","data":[%s]}`, strings.Join(data, ","))
	})
	return mux
}

func newTestGenerator(t *testing.T, f *fakeService, key string, opts Options) *Generator {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return New(Config{APIKey: key, BaseURL: srv.URL, HTTPClient: srv.Client()}, opts)
}

func completion(content string) string {
	return fmt.Sprintf(`{"id":"x","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, content)
}

func TestGenerate_MissingCredentialMakesNoCall(t *testing.T) {
	f := &fakeService{body: completion("unused")}
	g := newTestGenerator(t, f, "  ", Options{})

	ans := g.Generate(context.Background(), load(t, salesCSV), "")
	if !errors.Is(ans.Err, ErrMissingCredential) {
		t.Fatalf("Err = %v, want ErrMissingCredential", ans.Err)
	}
	if !strings.Contains(ans.Text, "API key") {
		t.Errorf("Text = %q, want a missing-key message", ans.Text)
	}
	if n := f.calls.Load(); n != 0 {
		t.Errorf("service called %d times, want 0", n)
	}
	if g.HasCredential() {
		t.Error("HasCredential() = true for a blank key")
	}
}

func TestGenerate_Success(t *testing.T) {
	f := &fakeService{body: completion("Revenue is growing.")}
	g := newTestGenerator(t, f, "test-key", Options{})

	ans := g.Generate(context.Background(), load(t, salesCSV), "")
	if !ans.OK() {
		t.Fatalf("Err = %v (%s)", ans.Err, ans.Text)
	}
	if ans.Text != "Revenue is growing." {
		t.Errorf("Text = %q", ans.Text)
	}

	if got := f.lastBody["model"]; got != DefaultModel {
		t.Errorf("model = %v, want %s", got, DefaultModel)
	}
	if got := f.lastBody["max_tokens"]; got != float64(700) {
		t.Errorf("max_tokens = %v, want 700", got)
	}
	if got, ok := f.lastBody["temperature"].(float64); !ok || got < 0.69 || got > 0.71 {
		t.Errorf("temperature = %v, want 0.7", f.lastBody["temperature"])
	}
	msgs, _ := f.lastBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want system + user", msgs)
	}
	sys := msgs[0].(map[string]any)
	if sys["role"] != "system" || sys["content"] != systemPrompt {
		t.Errorf("system message = %v", sys)
	}
}

func TestGenerate_ErrorStatus(t *testing.T) {
	f := &fakeService{
		status: http.StatusUnauthorized,
		body:   `{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`,
	}
	g := newTestGenerator(t, f, "test-key", Options{})

	ans := g.Generate(context.Background(), load(t, salesCSV), "why?")
	var se *ServiceError
	if !errors.As(ans.Err, &se) {
		t.Fatalf("Err = %v, want *ServiceError", ans.Err)
	}
	if se.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", se.StatusCode)
	}
	if !strings.Contains(ans.Text, "401") {
		t.Errorf("Text = %q, want status in message", ans.Text)
	}
}

func TestGenerate_MalformedBody(t *testing.T) {
	f := &fakeService{body: `{"choices": [`}
	g := newTestGenerator(t, f, "test-key", Options{})

	ans := g.Generate(context.Background(), load(t, salesCSV), "")
	var se *ServiceError
	if !errors.As(ans.Err, &se) {
		t.Fatalf("Err = %v, want *ServiceError", ans.Err)
	}
	if ans.Text == "" {
		t.Error("Text is empty for a malformed body")
	}
}

func TestGenerate_NoChoices(t *testing.T) {
	f := &fakeService{body: `{"id":"x","choices":[]}`}
	g := newTestGenerator(t, f, "test-key", Options{})

	ans := g.Generate(context.Background(), load(t, salesCSV), "")
	if !errors.Is(ans.Err, ErrEmptyResponse) {
		t.Fatalf("Err = %v, want ErrEmptyResponse", ans.Err)
	}
}

func TestPrompt_SummaryMode(t *testing.T) {
	g := New(Config{}, Options{Mode: ModeSummary})
	p, err := g.Prompt(load(t, salesCSV), "Which region is best?")
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	for _, want := range []string{"=== Dataset Summary ===", "=== Sample Data ===", "Which region is best?", "north"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "west") {
		t.Error("summary prompt should only include the first three rows")
	}
}

func TestPrompt_SampleModeLimits(t *testing.T) {
	var b strings.Builder
	for c := 0; c < 15; c++ {
		if c > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "c%d", c)
	}
	b.WriteString("\n")
	for r := 0; r < 40; r++ {
		for c := 0; c < 15; c++ {
			if c > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "%d", r*100+c)
		}
		b.WriteString("\n")
	}

	g := New(Config{}, Options{Mode: ModeSample, SampleRows: 10, MaxColumns: 10, Seed: 7})
	p, err := g.Prompt(load(t, b.String()), "What stands out?")
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}

	lines := strings.Split(p, "\n")
	header := -1
	for i, l := range lines {
		if strings.HasPrefix(l, "c0,") {
			header = i
			break
		}
	}
	if header < 0 {
		t.Fatalf("no CSV header in prompt:\n%s", p)
	}
	if got := len(strings.Split(lines[header], ",")); got != 10 {
		t.Errorf("sample columns = %d, want 10", got)
	}
	rows := 0
	for _, l := range lines[header+1:] {
		if l == "" {
			break
		}
		rows++
	}
	if rows != 10 {
		t.Errorf("sample rows = %d, want 10", rows)
	}
	if !strings.Contains(p, "Question: What stands out?") {
		t.Error("question missing from sample prompt")
	}
}

func TestPrompt_Truncated(t *testing.T) {
	g := New(Config{}, Options{PromptBudget: 50})
	p, err := g.Prompt(load(t, salesCSV), "")
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if n := utf8.RuneCountInString(p); n != 50 {
		t.Errorf("prompt length = %d, want 50", n)
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	if got := Truncate("héllo wörld", 4); got != "héll" {
		t.Errorf("Truncate = %q, want %q", got, "héll")
	}
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("keep", 0); got != "" {
		t.Errorf("Truncate(0) = %q, want empty", got)
	}
}

// wideCSV has cols columns and rows rows; every cell holds cell.
func wideCSV(cols, rows int, cell string) string {
	var b strings.Builder
	for c := 0; c < cols; c++ {
		if c > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "metric_%02d", c)
	}
	b.WriteString("\n")
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(",")
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestPrompt_WideTableKeepsQuestion(t *testing.T) {
	const question = "Which region grew fastest last quarter?"
	tests := []struct {
		name string
		mode Mode
		csv  string
	}{
		{"summary", ModeSummary, wideCSV(30, 2, "12345.678")},
		{"sample long cells", ModeSample, wideCSV(10, 10, strings.Repeat("lorem ipsum ", 20))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(Config{}, Options{Mode: tt.mode, Seed: 3})
			p, err := g.Prompt(load(t, tt.csv), question)
			if err != nil {
				t.Fatalf("Prompt: %v", err)
			}
			if n := utf8.RuneCountInString(p); n > 4000 {
				t.Errorf("prompt length = %d, want <= 4000", n)
			}
			if !strings.Contains(p, question) {
				t.Errorf("question lost from %d-char prompt", utf8.RuneCountInString(p))
			}
			if !strings.Contains(p, "metric_00") {
				t.Error("data section missing")
			}
		})
	}
}

func TestPrompt_QuestionLongerThanBudget(t *testing.T) {
	g := New(Config{}, Options{PromptBudget: 40})
	p, err := g.Prompt(load(t, salesCSV), strings.Repeat("why ", 30))
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if n := utf8.RuneCountInString(p); n != 40 {
		t.Errorf("prompt length = %d, want 40", n)
	}
}

func TestNew_ClampsOptions(t *testing.T) {
	tests := []struct {
		name                  string
		in                     Options
		budget, rows, columns int
	}{
		{"zero", Options{}, 4000, 10, 10},
		{"negative", Options{PromptBudget: -1, SampleRows: -5, MaxColumns: -2}, 4000, 10, 10},
		{"oversized", Options{PromptBudget: 2000, SampleRows: 500, MaxColumns: 40}, 2000, 10, 10},
		{"smaller", Options{PromptBudget: 100, SampleRows: 3, MaxColumns: 4}, 100, 3, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(Config{}, tt.in).Options()
			if got.PromptBudget != tt.budget || got.SampleRows != tt.rows || got.MaxColumns != tt.columns {
				t.Errorf("options = budget %d rows %d columns %d, want %d %d %d",
					got.PromptBudget, got.SampleRows, got.MaxColumns, tt.budget, tt.rows, tt.columns)
			}
		})
	}
}

func TestDiscoverModel(t *testing.T) {
	f := &fakeService{models: []string{"whisper-large-v3", "gemma2-9b-it", "llama-3.1-70b-versatile"}}
	g := newTestGenerator(t, f, "test-key", Options{})

	if got := g.DiscoverModel(context.Background()); got != "llama-3.1-70b-versatile" {
		t.Errorf("DiscoverModel() = %q, want llama-3.1-70b-versatile", got)
	}
}

func TestDiscoverModel_Fallback(t *testing.T) {
	g := New(Config{}, Options{})
	if got := g.DiscoverModel(context.Background()); got != DefaultModel {
		t.Errorf("DiscoverModel() without key = %q, want %s", got, DefaultModel)
	}
	if got := PickModel([]string{"whisper-large-v3"}); got != DefaultModel {
		t.Errorf("PickModel() = %q, want fallback", got)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Sample"); err != nil || m != ModeSample {
		t.Errorf("ParseMode(Sample) = %v, %v", m, err)
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("ParseMode(bogus) should fail")
	}
}
