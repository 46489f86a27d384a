package analyzer

import (
	"slices"
	"testing"
)

func TestFilterConcepts(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		input  []string
		want   []string
	}{
		{
			name:  "drops function words and keeps compound concepts",
			input: []string{"的", "权力意志", "了"},
			want:  []string{"权力意志"},
		},
		{
			name:  "drops forbidden common words",
			input: []string{"时间", "存在焦虑", "生活", "死亡恐惧"},
			want:  []string{"存在焦虑", "死亡恐惧"},
		},
		{
			name:  "drops below minimum length",
			input: []string{"自我", "自我超越"},
			want:  []string{"自我超越"},
		},
		{
			name:   "custom minimum length",
			filter: Filter{MinConceptLength: 2},
			input:  []string{"美德", "善"},
			want:   []string{"美德"},
		},
		{
			name:  "deduplicates preserving order",
			input: []string{"权力意志", "存在焦虑", "权力意志"},
			want:  []string{"权力意志", "存在焦虑"},
		},
		{
			name:  "trims whitespace",
			input: []string{" 永劫回归 "},
			want:  []string{"永劫回归"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.FilterConcepts(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("FilterConcepts(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilterConceptsIdempotent(t *testing.T) {
	var f Filter
	input := []string{"的", "权力意志", "思考", "存在焦虑", "存在焦虑"}
	once := f.FilterConcepts(input)
	twice := f.FilterConcepts(once)
	if !slices.Equal(once, twice) {
		t.Errorf("second pass changed output: %v vs %v", once, twice)
	}
}

func TestFilterThemes(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "drops vague classifications",
			input: []string{"生活感悟", "存在主义哲学", "个人成长"},
			want:  []string{"存在主义哲学"},
		},
		{
			name:  "academic keyword passes regardless of length",
			input: []string{"心理学"},
			want:  []string{"心理学"},
		},
		{
			name:  "non-academic short theme dropped",
			input: []string{"感悟"},
			want:  []string{},
		},
		{
			name:  "non-academic long theme kept",
			input: []string{"生死观念探讨"},
			want:  []string{"生死观念探讨"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Filter
			got := f.FilterThemes(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("FilterThemes(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilterEmotions(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "drops surface emotions",
			input: []string{"开心", "虚无感", "难过"},
			want:  []string{"虚无感"},
		},
		{
			name:  "deep emotions always pass",
			input: []string{"存在焦虑", "死亡焦虑"},
			want:  []string{"存在焦虑", "死亡焦虑"},
		},
		{
			name:  "unknown two-character emotion kept",
			input: []string{"敬畏"},
			want:  []string{"敬畏"},
		},
		{
			name:  "single character dropped",
			input: []string{"怒"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Filter
			got := f.FilterEmotions(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("FilterEmotions(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
