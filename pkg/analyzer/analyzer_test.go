package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"marginalia/pkg/ai"
	"marginalia/pkg/common"
)

type scriptedGenerator struct {
	respond func(prompt string) (string, error)
	prompts []string
	options []ai.GenerateOptions
}

func (g *scriptedGenerator) GenerateCompletion(_ context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	options := ai.GenerateOptions{}
	for _, o := range opts {
		o(&options)
	}
	g.prompts = append(g.prompts, prompt)
	g.options = append(g.options, options)
	return g.respond(prompt)
}

func batchResponse(n int) string {
	parts := make([]string, n)
	for i := range n {
		parts[i] = fmt.Sprintf(`"highlight_%d": {
			"concepts": ["存在焦虑", "自我超越"],
			"themes": ["存在主义哲学"],
			"emotions": ["虚无感"],
			"people": ["尼采"],
			"importance_score": 0.8,
			"summary": "片段%d的总结"
		}`, i, i)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func makeHighlights(n int) []common.Highlight {
	highlights := make([]common.Highlight, n)
	for i := range n {
		highlights[i] = common.Highlight{
			Content:  fmt.Sprintf("第%d条标注的内容。", i),
			Location: common.Location{Page: i + 1, Position: i},
			Type:     common.HighlightTypeHighlight,
		}
	}
	return highlights
}

func TestAnalyzeBookBatching(t *testing.T) {
	gen := &scriptedGenerator{
		respond: func(prompt string) (string, error) {
			n := strings.Count(prompt, "条标注的内容")
			return batchResponse(n), nil
		},
	}
	analyzer := NewAnalyzer(NewAnalyzerParams{Generator: gen, BatchSize: 5})
	book := testBook(makeHighlights(7)...)

	results, err := analyzer.AnalyzeBook(context.Background(), book)
	if err != nil {
		t.Fatalf("AnalyzeBook: %v", err)
	}

	if len(gen.prompts) != 2 {
		t.Errorf("model called %d times, want 2 (batches of 5 and 2)", len(gen.prompts))
	}
	if len(results) != 7 {
		t.Fatalf("got %d results, want 7", len(results))
	}
	for i, result := range results {
		wantID := book.HighlightID(book.Highlights[i])
		if result.HighlightID != wantID {
			t.Errorf("results[%d].HighlightID = %q, want %q (input order preserved)", i, result.HighlightID, wantID)
		}
	}
}

func TestAnalyzeBookUnparseableResponse(t *testing.T) {
	gen := &scriptedGenerator{
		respond: func(string) (string, error) { return "not json", nil },
	}
	analyzer := NewAnalyzer(NewAnalyzerParams{Generator: gen})
	book := testBook(makeHighlights(3)...)

	results, err := analyzer.AnalyzeBook(context.Background(), book)
	if err != nil {
		t.Fatalf("AnalyzeBook: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, result := range results {
		if result.ImportanceScore != 0.5 {
			t.Errorf("results[%d].ImportanceScore = %v, want placeholder 0.5", i, result.ImportanceScore)
		}
		if result.Summary != "重要思考片段" {
			t.Errorf("results[%d].Summary = %q, want placeholder", i, result.Summary)
		}
		if len(result.Concepts) == 0 {
			t.Errorf("results[%d] has no concepts, placeholder should provide them", i)
		}
	}
}

func TestAnalyzeBookMissingHighlightKey(t *testing.T) {
	gen := &scriptedGenerator{
		// Response covers highlight_0 only; highlight_1 must get a placeholder.
		respond: func(string) (string, error) { return batchResponse(1), nil },
	}
	analyzer := NewAnalyzer(NewAnalyzerParams{Generator: gen})
	book := testBook(makeHighlights(2)...)

	results, err := analyzer.AnalyzeBook(context.Background(), book)
	if err != nil {
		t.Fatalf("AnalyzeBook: %v", err)
	}
	if results[0].ImportanceScore != 0.8 {
		t.Errorf("results[0].ImportanceScore = %v, want model value 0.8", results[0].ImportanceScore)
	}
	if results[1].Summary != "重要思考片段" {
		t.Errorf("results[1].Summary = %q, want placeholder", results[1].Summary)
	}
}

func TestAnalyzeBookBudgetExceededAborts(t *testing.T) {
	gen := &scriptedGenerator{
		respond: func(string) (string, error) {
			return "", &ai.BudgetExceededError{DailyCost: 10, Limit: 10}
		},
	}
	analyzer := NewAnalyzer(NewAnalyzerParams{Generator: gen})
	book := testBook(makeHighlights(3)...)

	_, err := analyzer.AnalyzeBook(context.Background(), book)
	var exceeded *ai.BudgetExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected BudgetExceededError to abort the run, got %v", err)
	}
}

func TestAnalyzeBookTransportErrorDegrades(t *testing.T) {
	gen := &scriptedGenerator{
		respond: func(string) (string, error) {
			return "", &ai.TransportError{Err: errors.New("connection refused")}
		},
	}
	analyzer := NewAnalyzer(NewAnalyzerParams{Generator: gen})
	h := common.Highlight{
		Content:  "尼采谈到了权力与孤独。",
		Location: common.Location{Page: 1, Position: 0},
	}
	book := testBook(h)

	results, err := analyzer.AnalyzeBook(context.Background(), book)
	if err != nil {
		t.Fatalf("transport errors must degrade, not fail: %v", err)
	}
	if !strings.Contains(strings.Join(results[0].Concepts, ","), "权力意志") {
		t.Errorf("Concepts = %v, want heuristic extraction of 权力意志", results[0].Concepts)
	}
}

func TestAnalyzeBookLocalOnly(t *testing.T) {
	analyzer := NewAnalyzer(NewAnalyzerParams{})
	book := testBook(makeHighlights(4)...)

	results, err := analyzer.AnalyzeBook(context.Background(), book)
	if err != nil {
		t.Fatalf("AnalyzeBook: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("got %d results, want 4", len(results))
	}
}

func TestAnalyzeHighlight(t *testing.T) {
	gen := &scriptedGenerator{
		respond: func(string) (string, error) {
			return `{
				"concepts": ["权力意志", "自我超越"],
				"themes": ["存在主义哲学"],
				"emotions": ["虚无感"],
				"people": ["尼采"],
				"importance_score": 0.8,
				"summary": "单条标注的总结"
			}`, nil
		},
	}
	analyzer := NewAnalyzer(NewAnalyzerParams{Generator: gen})
	h := common.Highlight{
		Content:  "权力意志是尼采思想的核心。",
		Location: common.Location{Page: 12, Position: 3},
	}
	book := testBook(h)

	result, err := analyzer.AnalyzeHighlight(context.Background(), book, h)
	if err != nil {
		t.Fatalf("AnalyzeHighlight: %v", err)
	}

	if result.HighlightID != book.HighlightID(h) {
		t.Errorf("HighlightID = %q, want %q", result.HighlightID, book.HighlightID(h))
	}
	if result.ImportanceScore != 0.8 {
		t.Errorf("ImportanceScore = %v, want 0.8", result.ImportanceScore)
	}
	if result.Summary != "单条标注的总结" {
		t.Errorf("Summary = %q, want model summary", result.Summary)
	}
	if len(gen.options) != 1 || gen.options[0].Schema == nil {
		t.Fatalf("single-highlight call must request schema-constrained output, got %+v", gen.options)
	}
	if gen.options[0].Schema.Name != "highlight_analysis" {
		t.Errorf("schema name = %q, want highlight_analysis", gen.options[0].Schema.Name)
	}
}

func TestAnalyzeHighlightTransportErrorDegrades(t *testing.T) {
	gen := &scriptedGenerator{
		respond: func(string) (string, error) {
			return "", &ai.TransportError{Err: errors.New("connection refused")}
		},
	}
	analyzer := NewAnalyzer(NewAnalyzerParams{Generator: gen})
	h := common.Highlight{
		Content:  "尼采谈到了权力与孤独。",
		Location: common.Location{Page: 1, Position: 0},
	}
	book := testBook(h)

	result, err := analyzer.AnalyzeHighlight(context.Background(), book, h)
	if err != nil {
		t.Fatalf("transport errors must degrade, not fail: %v", err)
	}
	if !strings.Contains(strings.Join(result.Concepts, ","), "权力意志") {
		t.Errorf("Concepts = %v, want heuristic extraction of 权力意志", result.Concepts)
	}
}

func TestAnalyzeHighlightUnparseableResponseDegrades(t *testing.T) {
	gen := &scriptedGenerator{
		respond: func(string) (string, error) { return "not json", nil },
	}
	analyzer := NewAnalyzer(NewAnalyzerParams{Generator: gen})
	h := common.Highlight{
		Content:  "孤独中自由的思考。",
		Location: common.Location{Page: 2, Position: 1},
	}
	book := testBook(h)

	result, err := analyzer.AnalyzeHighlight(context.Background(), book, h)
	if err != nil {
		t.Fatalf("malformed responses must degrade, not fail: %v", err)
	}
	heuristic := HeuristicAnalyzer{}
	want := heuristic.AnalyzeHighlight(book, h)
	if result.Summary != want.Summary {
		t.Errorf("Summary = %q, want heuristic summary %q", result.Summary, want.Summary)
	}
	if result.ImportanceScore != want.ImportanceScore {
		t.Errorf("ImportanceScore = %v, want heuristic score %v", result.ImportanceScore, want.ImportanceScore)
	}
}

func TestAnalyzeHighlightBudgetExceededAborts(t *testing.T) {
	gen := &scriptedGenerator{
		respond: func(string) (string, error) {
			return "", &ai.BudgetExceededError{DailyCost: 10, Limit: 10}
		},
	}
	analyzer := NewAnalyzer(NewAnalyzerParams{Generator: gen})
	h := common.Highlight{Content: "内容。", Location: common.Location{Page: 1, Position: 0}}
	book := testBook(h)

	_, err := analyzer.AnalyzeHighlight(context.Background(), book, h)
	var exceeded *ai.BudgetExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected BudgetExceededError to propagate, got %v", err)
	}
}

func TestAnalyzeHighlightLocalOnly(t *testing.T) {
	analyzer := NewAnalyzer(NewAnalyzerParams{})
	h := common.Highlight{
		Content:  "存在先于本质。",
		Location: common.Location{Page: 5, Position: 2},
	}
	book := testBook(h)

	result, err := analyzer.AnalyzeHighlight(context.Background(), book, h)
	if err != nil {
		t.Fatalf("AnalyzeHighlight: %v", err)
	}
	if result.HighlightID != book.HighlightID(h) {
		t.Errorf("HighlightID = %q, want %q", result.HighlightID, book.HighlightID(h))
	}
	if !strings.Contains(strings.Join(result.Concepts, ","), "存在焦虑") {
		t.Errorf("Concepts = %v, want heuristic extraction of 存在焦虑", result.Concepts)
	}
	if !strings.Contains(strings.Join(result.Themes, ","), "存在主义") {
		t.Errorf("Themes = %v, want heuristic extraction of 存在主义", result.Themes)
	}
}

func TestAnalyzeBookFiltersAndCaps(t *testing.T) {
	gen := &scriptedGenerator{
		respond: func(string) (string, error) {
			return `{"highlight_0": {
				"concepts": ["的", "权力意志", "存在焦虑", "死亡恐惧", "自我超越", "永劫回归", "超人理论", "了"],
				"themes": ["生活感悟", "存在主义哲学", "精神分析学", "伦理哲学", "政治哲学"],
				"emotions": ["开心", "虚无感", "存在焦虑", "死亡焦虑", "异化感"],
				"people": ["尼采"],
				"importance_score": 0.9,
				"summary": "总结"
			}}`, nil
		},
	}
	analyzer := NewAnalyzer(NewAnalyzerParams{Generator: gen})
	book := testBook(makeHighlights(1)...)

	results, err := analyzer.AnalyzeBook(context.Background(), book)
	if err != nil {
		t.Fatalf("AnalyzeBook: %v", err)
	}

	result := results[0]
	if len(result.Concepts) != 5 {
		t.Errorf("got %d concepts %v, want cap of 5", len(result.Concepts), result.Concepts)
	}
	if len(result.Themes) != 3 {
		t.Errorf("got %d themes %v, want cap of 3", len(result.Themes), result.Themes)
	}
	if len(result.Emotions) != 3 {
		t.Errorf("got %d emotions %v, want cap of 3", len(result.Emotions), result.Emotions)
	}
	for _, concept := range result.Concepts {
		if concept == "的" || concept == "了" {
			t.Errorf("generic term %q survived filtering", concept)
		}
	}
	if len(result.Tags) != len(result.Concepts)+len(result.Themes) {
		t.Errorf("got %d tags, want one per kept concept and theme", len(result.Tags))
	}
}
