package analyzer

import (
	"slices"
	"strings"
	"testing"

	"marginalia/pkg/common"
)

func testBook(highlights ...common.Highlight) *common.Book {
	return &common.Book{
		Metadata: common.BookMetadata{
			Title:  "当尼采哭泣",
			Author: "欧文·亚隆",
		},
		Highlights: highlights,
	}
}

func TestHeuristicAnalyzeHighlight(t *testing.T) {
	var analyzer HeuristicAnalyzer
	h := common.Highlight{
		Content:  "尼采说，权力意志是生命的根本动力，存在本身就是一种选择。",
		Location: common.Location{Page: 42, Position: 3},
		Type:     common.HighlightTypeHighlight,
	}
	book := testBook(h)

	result := analyzer.AnalyzeHighlight(book, h)

	if result.HighlightID != "当尼采哭泣_42_3" {
		t.Errorf("HighlightID = %q, want %q", result.HighlightID, "当尼采哭泣_42_3")
	}
	if !slices.Contains(result.Concepts, "权力意志") {
		t.Errorf("Concepts = %v, want 权力意志 present", result.Concepts)
	}
	if !slices.Contains(result.People, "尼采") {
		t.Errorf("People = %v, want 尼采 present", result.People)
	}
	if result.ImportanceScore < 0.1 || result.ImportanceScore > 1.0 {
		t.Errorf("ImportanceScore = %v, want within [0.1, 1.0]", result.ImportanceScore)
	}
	if len(result.Concepts) > 5 {
		t.Errorf("got %d concepts, want at most 5", len(result.Concepts))
	}
	if len(result.Themes) > 3 {
		t.Errorf("got %d themes, want at most 3", len(result.Themes))
	}
}

func TestHeuristicDeterministic(t *testing.T) {
	var analyzer HeuristicAnalyzer
	h := common.Highlight{
		Content:  "孤独是存在的底色，爱情和信仰都是对它的回应。",
		Location: common.Location{Page: 7, Position: 1},
	}
	book := testBook(h)

	first := analyzer.AnalyzeHighlight(book, h)
	for range 5 {
		again := analyzer.AnalyzeHighlight(book, h)
		if !slices.Equal(first.Concepts, again.Concepts) ||
			!slices.Equal(first.Themes, again.Themes) ||
			!slices.Equal(first.Emotions, again.Emotions) {
			t.Fatal("heuristic analysis must be deterministic")
		}
	}
}

func TestImportanceScore(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, score float64)
	}{
		{
			name:    "floor for trivial content",
			content: "嗯",
			check: func(t *testing.T, score float64) {
				if score != 0.1 {
					t.Errorf("score = %v, want floor 0.1", score)
				}
			},
		},
		{
			name:    "keywords raise the score",
			content: "哲学、心理、存在、生命、死亡、爱情、自由、选择、责任、意义。",
			check: func(t *testing.T, score float64) {
				if score < 0.4 {
					t.Errorf("score = %v, want at least the full keyword component", score)
				}
			},
		},
		{
			name:    "never exceeds one",
			content: strings.Repeat("死亡与自由？！", 100),
			check: func(t *testing.T, score float64) {
				if score > 1.0 {
					t.Errorf("score = %v, want at most 1.0", score)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ImportanceScore(tt.content))
		})
	}
}

func TestExtractiveSummary(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "short content returned verbatim",
			content: "简短的标注。",
			want:    "简短的标注。",
		},
		{
			name:    "long content reduced to first and last sentence",
			content: "第一句。" + strings.Repeat("中间的句子。", 20) + "最后一句",
			want:    "第一句。最后一句。",
		},
		{
			name:    "no sentence boundary truncates",
			content: strings.Repeat("无句读", 50),
			want:    strings.Repeat("无句读", 33) + "无" + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractiveSummary(tt.content); got != tt.want {
				t.Errorf("ExtractiveSummary = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTags(t *testing.T) {
	got := BuildTags([]string{"权力意志"}, []string{"存在主义"})
	want := []string{"#权力意志", "#存在主义"}
	if !slices.Equal(got, want) {
		t.Errorf("BuildTags = %v, want %v", got, want)
	}
}
