package analyzer

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinConceptLength is the minimum rune length for a concept to
// survive filtering.
const DefaultMinConceptLength = 3

// forbiddenConcepts are terms too simple or common to carry meaning as
// graph nodes.
var forbiddenConcepts = makeSet(
	"然而", "此刻", "时间", "选择", "思考", "生活", "人生", "世界", "生命",
	"自己", "我们", "他们", "这个", "那个", "现在", "过去", "未来",
	"好的", "不好", "重要", "一般", "普通", "简单", "复杂", "问题",
	"答案", "方法", "方式", "内容", "事情", "东西", "情况", "状态",
	"过程", "结果", "原因", "条件", "环境", "背景", "历史", "文化",
)

// genericPatterns are function words and interrogatives that occasionally
// leak through model output as "concepts".
var genericPatterns = makeSet(
	"的", "了", "是", "有", "在", "和", "与", "或", "但", "而",
	"所以", "因为", "如果", "虽然", "不过", "可是", "只是", "就是",
	"什么", "怎么", "为什么", "哪里", "谁", "多少", "几个",
)

// forbiddenThemes are vague, non-academic classifications.
var forbiddenThemes = makeSet(
	"生活感悟", "个人成长", "人生体验", "日常思考", "一般讨论",
	"普通话题", "简单分析", "基础理解", "常见观点", "流行思想",
	"大众文化", "通俗理论", "生活哲学", "人际关系", "情感交流",
	"个人感受", "主观体验", "直觉判断", "常识理解", "表面现象",
)

// academicKeywords mark a theme as belonging to a recognized field of
// study; such themes pass regardless of length.
var academicKeywords = []string{
	"哲学", "心理学", "伦理学", "形而上学", "认识论", "本体论",
	"存在主义", "现象学", "分析哲学", "实用主义", "后现代主义",
	"精神分析", "行为主义", "认知科学", "社会学", "政治哲学",
}

// forbiddenEmotions are surface-level emotional labels.
var forbiddenEmotions = makeSet(
	"开心", "难过", "生气", "高兴", "愤怒", "快乐", "悲伤",
	"普通", "一般", "正常", "平常", "简单", "复杂", "好奇",
	"疑惑", "不解", "明白", "理解", "知道", "感觉", "觉得",
)

// deepEmotions always pass filtering, even when short.
var deepEmotions = makeSet(
	"存在焦虑", "虚无感", "超越渴望", "道德困顿", "精神痛苦",
	"哲学惊异", "形而上学恐惧", "本体论焦虑", "死亡焦虑",
	"自由恐惧", "选择焦虑", "责任重负", "孤独感", "异化感",
)

func makeSet(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// Filter removes low-value terms from model output before they become
// graph nodes. All Filter methods are idempotent and preserve input order;
// lengths are measured in runes, not bytes.
type Filter struct {
	// MinConceptLength is the minimum rune length for concepts. Zero means
	// DefaultMinConceptLength.
	MinConceptLength int
}

func (f Filter) minConceptLength() int {
	if f.MinConceptLength > 0 {
		return f.MinConceptLength
	}
	return DefaultMinConceptLength
}

// FilterConcepts drops forbidden, too-short and generic concepts, then
// deduplicates preserving first occurrence.
func (f Filter) FilterConcepts(concepts []string) []string {
	minLen := f.minConceptLength()

	filtered := make([]string, 0, len(concepts))
	seen := make(map[string]struct{}, len(concepts))
	for _, concept := range concepts {
		concept = strings.TrimSpace(concept)
		if _, forbidden := forbiddenConcepts[concept]; forbidden {
			continue
		}
		if utf8.RuneCountInString(concept) < minLen {
			continue
		}
		if isTooGeneric(concept) {
			continue
		}
		if _, dup := seen[concept]; dup {
			continue
		}
		seen[concept] = struct{}{}
		filtered = append(filtered, concept)
	}
	return filtered
}

// FilterThemes keeps academic themes and longer free-form ones, dropping
// the forbidden vague classifications.
func (f Filter) FilterThemes(themes []string) []string {
	filtered := make([]string, 0, len(themes))
	seen := make(map[string]struct{}, len(themes))
	for _, theme := range themes {
		theme = strings.TrimSpace(theme)
		if _, forbidden := forbiddenThemes[theme]; forbidden {
			continue
		}
		if !hasAcademicKeyword(theme) && utf8.RuneCountInString(theme) < 4 {
			continue
		}
		if _, dup := seen[theme]; dup {
			continue
		}
		seen[theme] = struct{}{}
		filtered = append(filtered, theme)
	}
	return filtered
}

// FilterEmotions keeps deep emotional states and drops surface labels.
func (f Filter) FilterEmotions(emotions []string) []string {
	filtered := make([]string, 0, len(emotions))
	seen := make(map[string]struct{}, len(emotions))
	for _, emotion := range emotions {
		emotion = strings.TrimSpace(emotion)
		if _, deep := deepEmotions[emotion]; !deep {
			if _, forbidden := forbiddenEmotions[emotion]; forbidden {
				continue
			}
			if utf8.RuneCountInString(emotion) < 2 {
				continue
			}
		}
		if _, dup := seen[emotion]; dup {
			continue
		}
		seen[emotion] = struct{}{}
		filtered = append(filtered, emotion)
	}
	return filtered
}

func hasAcademicKeyword(theme string) bool {
	for _, keyword := range academicKeywords {
		if strings.Contains(theme, keyword) {
			return true
		}
	}
	return false
}

func isTooGeneric(concept string) bool {
	if _, ok := genericPatterns[concept]; ok {
		return true
	}
	return utf8.RuneCountInString(concept) <= 1
}
