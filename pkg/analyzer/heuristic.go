package analyzer

import (
	"sort"
	"strings"
	"unicode/utf8"

	"marginalia/pkg/common"
)

// conceptKeywords maps surface keywords in highlight text to the
// philosophical concept they indicate.
var conceptKeywords = map[string]string{
	"权力": "权力意志",
	"支配": "权力意志",
	"控制": "权力意志",
	"死亡": "死亡恐惧",
	"生命": "存在焦虑",
	"存在": "存在焦虑",
	"爱情": "爱情哲学",
	"欲望": "爱情哲学",
	"婚姻": "婚姻自由",
	"自由": "婚姻自由",
	"选择": "选择责任",
	"责任": "选择责任",
	"孤独": "孤独连接",
	"连接": "孤独连接",
	"宗教": "宗教信仰",
	"信仰": "宗教信仰",
	"神":  "宗教信仰",
	"上帝": "宗教信仰",
	"无神": "无神论",
	"心理": "精神分析",
	"精神": "精神分析",
	"意识": "意识觉醒",
	"意义": "意义建构",
}

var themeKeywords = map[string]string{
	"哲学": "哲学思辨",
	"心理": "心理学",
	"治疗": "心理学",
	"关系": "人际关系",
	"自我": "自我认知",
	"认知": "自我认知",
	"情感": "情感分析",
	"生死": "生死观",
	"价值": "价值观",
	"道德": "道德伦理",
	"宗教": "宗教哲学",
	"存在": "存在主义",
}

var emotionKeywords = map[string]string{
	"焦虑": "焦虑",
	"紧张": "焦虑",
	"困惑": "困惑",
	"疑问": "困惑",
	"痛苦": "痛苦",
	"难过": "痛苦",
	"愤怒": "愤怒",
	"生气": "愤怒",
	"恐惧": "恐惧",
	"害怕": "恐惧",
	"希望": "希望",
	"期望": "希望",
	"平静": "平静",
	"安静": "平静",
	"悲伤": "悲伤",
	"伤心": "悲伤",
	"孤独": "孤独",
	"寂寞": "孤独",
	"渴望": "渴望",
	"向往": "渴望",
	"满足": "满足",
	"幸福": "满足",
	"挣扎": "挣扎",
	"矛盾": "挣扎",
}

var peopleKeywords = map[string]string{
	"尼采":  "尼采",
	"布雷尔": "布雷尔",
	"弗洛伊德": "弗洛伊德",
	"贝莎":  "贝莎",
	"亚隆":  "欧文·亚隆",
	"叔本华": "叔本华",
	"瓦格纳": "瓦格纳",
	"莎乐美": "莎乐美",
	"耶稣":  "耶稣",
	"上帝":  "上帝",
}

// importanceKeywords raise the heuristic importance score when present.
var importanceKeywords = []string{
	"哲学", "心理", "存在", "生命", "死亡", "爱情", "自由", "选择", "责任", "意义",
}

// HeuristicAnalyzer produces analysis results from keyword matching alone,
// with no model call. It serves two roles: the default path when no API
// credentials are configured, and the degraded path when a remote call
// fails mid-run. Output is deterministic for a given input.
type HeuristicAnalyzer struct{}

// AnalyzeHighlight extracts concepts, themes, emotions and people by
// keyword lookup and scores importance from the text itself.
func (a HeuristicAnalyzer) AnalyzeHighlight(book *common.Book, h common.Highlight) common.AnalysisResult {
	concepts := matchKeywords(h.Content, conceptKeywords, 5)
	themes := matchKeywords(h.Content, themeKeywords, 3)
	emotions := matchKeywords(h.Content, emotionKeywords, 3)
	people := matchKeywords(h.Content, peopleKeywords, 0)

	return common.AnalysisResult{
		HighlightID:     book.HighlightID(h),
		Concepts:        concepts,
		Themes:          themes,
		Emotions:        emotions,
		People:          people,
		ImportanceScore: ImportanceScore(h.Content),
		Summary:         ExtractiveSummary(h.Content),
		Tags:            BuildTags(concepts, themes),
	}
}

// matchKeywords returns the mapped values for every keyword found in
// content, deduplicated and sorted for stable output. A limit of zero
// means unlimited.
func matchKeywords(content string, mapping map[string]string, limit int) []string {
	seen := make(map[string]struct{})
	for keyword, value := range mapping {
		if strings.Contains(content, keyword) {
			seen[value] = struct{}{}
		}
	}

	matched := make([]string, 0, len(seen))
	for value := range seen {
		matched = append(matched, value)
	}
	sort.Strings(matched)

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// ImportanceScore rates a highlight from its own text: length contributes
// 30%, philosophical keyword density 40%, and question/exclamation marks
// 30%. The result is clamped to [0.1, 1.0] so no highlight scores zero.
func ImportanceScore(content string) float64 {
	runes := utf8.RuneCountInString(content)

	lengthScore := min(float64(runes)/200, 1.0) * 0.3

	hits := 0
	for _, keyword := range importanceKeywords {
		if strings.Contains(content, keyword) {
			hits++
		}
	}
	keywordScore := float64(hits) / float64(len(importanceKeywords)) * 0.4

	marks := strings.Count(content, "?") + strings.Count(content, "？") +
		strings.Count(content, "!") + strings.Count(content, "！")
	punctuationScore := float64(marks) / float64(max(runes, 1)) * 0.3

	return min(max(lengthScore+keywordScore+punctuationScore, 0.1), 1.0)
}

// ExtractiveSummary summarizes without a model: short text is returned
// as-is, longer text is reduced to its first and last sentence, and text
// with no sentence boundary is truncated.
func ExtractiveSummary(content string) string {
	runes := []rune(content)
	if len(runes) <= 100 {
		return content
	}

	sentences := strings.Split(content, "。")
	if len(sentences) >= 2 {
		return sentences[0] + "。" + sentences[len(sentences)-1] + "。"
	}
	return string(runes[:100]) + "..."
}

// BuildTags renders concepts then themes as "#"-prefixed tags.
func BuildTags(concepts, themes []string) []string {
	tags := make([]string, 0, len(concepts)+len(themes))
	for _, concept := range concepts {
		tags = append(tags, "#"+concept)
	}
	for _, theme := range themes {
		tags = append(tags, "#"+theme)
	}
	return tags
}
