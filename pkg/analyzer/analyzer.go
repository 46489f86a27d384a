// Package analyzer turns book highlights into structured analysis results,
// either through a language model or a local keyword heuristic.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"marginalia/pkg/ai"
	"marginalia/pkg/common"
	"marginalia/pkg/logger"
)

// DefaultBatchSize is the number of highlights analyzed per model call.
const DefaultBatchSize = 5

// maxConcepts, maxThemes and maxEmotions cap each result after filtering.
const (
	maxConcepts = 5
	maxThemes   = 3
	maxEmotions = 3
)

// highlightAnalysis is the JSON shape the model returns for one highlight.
type highlightAnalysis struct {
	Concepts        []string `json:"concepts"`
	Themes          []string `json:"themes"`
	Emotions        []string `json:"emotions"`
	People          []string `json:"people"`
	ImportanceScore float64  `json:"importance_score"`
	Summary         string   `json:"summary"`
}

// Analyzer runs highlight analysis over a book. With a generator configured
// it batches highlights into model calls; without one it runs the local
// heuristic for every highlight.
//
// A budget error from the generator aborts the run. Any other generator
// error degrades the affected batch to the heuristic path, and a response
// that parses but is missing a highlight fills that slot with a neutral
// placeholder, so one bad response never loses a highlight.
type Analyzer struct {
	generator ai.TextGenerator
	heuristic HeuristicAnalyzer
	filter    Filter
	batchSize int
}

type NewAnalyzerParams struct {
	// Generator may be nil to run fully local.
	Generator ai.TextGenerator
	// BatchSize caps highlights per model call; zero means DefaultBatchSize.
	BatchSize int
	// MinConceptLength is forwarded to the quality filter.
	MinConceptLength int
}

func NewAnalyzer(params NewAnalyzerParams) *Analyzer {
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Analyzer{
		generator: params.Generator,
		filter:    Filter{MinConceptLength: params.MinConceptLength},
		batchSize: batchSize,
	}
}

// AnalyzeBook analyzes every highlight of book in input order. The returned
// slice always has exactly one result per highlight, in the same order.
func (a *Analyzer) AnalyzeBook(ctx context.Context, book *common.Book) ([]common.AnalysisResult, error) {
	highlights := book.Highlights
	results := make([]common.AnalysisResult, 0, len(highlights))

	totalBatches := (len(highlights) + a.batchSize - 1) / a.batchSize
	for i := 0; i < len(highlights); i += a.batchSize {
		batch := highlights[i:min(i+a.batchSize, len(highlights))]
		logger.Info("processing batch",
			"batch", i/a.batchSize+1,
			"total_batches", totalBatches,
			"highlights", len(batch),
		)

		batchResults, err := a.analyzeBatch(ctx, book, batch)
		if err != nil {
			return nil, err
		}
		results = append(results, batchResults...)
	}

	return results, nil
}

// AnalyzeHighlight analyzes a single highlight with its own model call.
func (a *Analyzer) AnalyzeHighlight(ctx context.Context, book *common.Book, h common.Highlight) (common.AnalysisResult, error) {
	if a.generator == nil {
		return a.heuristic.AnalyzeHighlight(book, h), nil
	}

	response, err := a.generator.GenerateCompletion(ctx, analysisPrompt(h.Content),
		ai.WithOutputSchema("highlight_analysis", "Structured analysis of one reading highlight", &highlightAnalysis{}),
	)
	if err != nil {
		var exceeded *ai.BudgetExceededError
		if errors.As(err, &exceeded) {
			return common.AnalysisResult{}, err
		}
		logger.Error("highlight analysis failed, using heuristic", "error", err)
		return a.heuristic.AnalyzeHighlight(book, h), nil
	}

	var analysis highlightAnalysis
	if err := ai.UnmarshalFlexible(response, &analysis); err != nil {
		logger.Warn("unparseable analysis response, using heuristic", "error", err)
		return a.heuristic.AnalyzeHighlight(book, h), nil
	}

	return a.buildResult(book, h, analysis), nil
}

// analyzeBatch analyzes one batch of highlights through a single model call.
func (a *Analyzer) analyzeBatch(ctx context.Context, book *common.Book, batch []common.Highlight) ([]common.AnalysisResult, error) {
	if a.generator == nil {
		results := make([]common.AnalysisResult, len(batch))
		for i, h := range batch {
			results[i] = a.heuristic.AnalyzeHighlight(book, h)
		}
		return results, nil
	}

	response, err := a.generator.GenerateCompletion(ctx, batchAnalysisPrompt(batch))
	if err != nil {
		var exceeded *ai.BudgetExceededError
		if errors.As(err, &exceeded) {
			return nil, err
		}

		logger.Error("batch analysis failed, degrading to heuristic", "error", err)
		results := make([]common.AnalysisResult, len(batch))
		for i, h := range batch {
			results[i] = a.heuristic.AnalyzeHighlight(book, h)
		}
		return results, nil
	}

	var batchAnalyses map[string]highlightAnalysis
	if err := ai.UnmarshalFlexible(response, &batchAnalyses); err != nil {
		logger.Warn("unparseable batch response, using placeholders", "error", err)
		batchAnalyses = nil
	}

	results := make([]common.AnalysisResult, len(batch))
	for i, h := range batch {
		analysis, ok := batchAnalyses[fmt.Sprintf("highlight_%d", i)]
		if !ok {
			analysis = placeholderAnalysis()
		}
		results[i] = a.buildResult(book, h, analysis)
	}
	return results, nil
}

// buildResult filters, caps and assembles one model analysis into the final
// result for a highlight.
func (a *Analyzer) buildResult(book *common.Book, h common.Highlight, analysis highlightAnalysis) common.AnalysisResult {
	concepts := capSlice(a.filter.FilterConcepts(analysis.Concepts), maxConcepts)
	themes := capSlice(a.filter.FilterThemes(analysis.Themes), maxThemes)
	emotions := capSlice(a.filter.FilterEmotions(analysis.Emotions), maxEmotions)

	score := analysis.ImportanceScore
	if score == 0 {
		score = 0.5
	}
	summary := analysis.Summary
	if summary == "" {
		runes := []rune(h.Content)
		summary = string(runes[:min(len(runes), 100)])
	}

	return common.AnalysisResult{
		HighlightID:     book.HighlightID(h),
		Concepts:        concepts,
		Themes:          themes,
		Emotions:        emotions,
		People:          analysis.People,
		ImportanceScore: score,
		Summary:         summary,
		Tags:            BuildTags(concepts, themes),
	}
}

// placeholderAnalysis is the neutral result used when the model response
// does not cover a highlight.
func placeholderAnalysis() highlightAnalysis {
	return highlightAnalysis{
		Concepts:        []string{"哲学思考", "个人感悟"},
		Themes:          []string{"人生哲学"},
		Emotions:        []string{"思考"},
		People:          []string{},
		ImportanceScore: 0.5,
		Summary:         "重要思考片段",
	}
}

func capSlice(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
