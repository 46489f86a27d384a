package analyzer

import (
	"fmt"
	"strings"

	"marginalia/pkg/common"
)

// BatchDelimiter separates highlight contents inside a batch prompt. The
// model never needs to echo it back; responses are keyed by index instead.
const BatchDelimiter = "===标注分隔==="

// analysisPrompt builds the single-highlight analysis prompt. The strict
// vocabulary rules exist because small models otherwise return filler words
// as concepts; the quality filter catches stragglers.
func analysisPrompt(content string) string {
	return fmt.Sprintf(`请对以下文本进行精炼的哲学分析，返回JSON格式的结果。注重质量而非数量。

文本内容：
%s

严格要求：
1. 核心概念（2-4个）：
   - 必须是深层哲学概念，如"存在焦虑"、"死亡意识"、"自我超越"
   - 禁止简单词汇："然而"、"此刻"、"时间"、"选择"等
   - 禁止过于宽泛的词："生活"、"人生"、"思考"
   - 优选复合概念："权力意志"、"永劫回归"、"超人理论"

2. 主题分类（1-2个）：
   - 必须是学术领域："存在主义哲学"、"精神分析学"、"伦理哲学"
   - 避免模糊分类："人际关系"、"个人成长"、"生活感悟"

3. 核心情感（1-2个）：
   - 深层情感状态："存在焦虑"、"虚无感"、"超越渴望"
   - 避免表面情感："开心"、"难过"、"生气"

4. 人物（仅明确提及的）：完整人名，如"弗里德里希·尼采"

5. 重要性评分（0.1-1.0）：基于哲学深度、思想独特性、启发价值

6. 精炼总结（15字以内）：抓住最核心的哲学洞察

返回格式：
{
  "concepts": ["存在焦虑", "自我超越"],
  "themes": ["存在主义哲学"],
  "emotions": ["虚无感"],
  "people": ["尼采"],
  "importance_score": 0.8,
  "summary": "探讨个体面对虚无时的超越路径"
}

只返回JSON，无其他文字。`, content)
}

// batchAnalysisPrompt builds the prompt for analyzing several highlights in
// one call. The response contract is a JSON object keyed "highlight_0" ..
// "highlight_N-1" in the order the highlights appear in the prompt.
func batchAnalysisPrompt(highlights []common.Highlight) string {
	contents := make([]string, len(highlights))
	for i, h := range highlights {
		contents[i] = h.Content
	}
	batchContent := strings.Join(contents, "\n\n"+BatchDelimiter+"\n\n")

	return fmt.Sprintf(`请分析以下%d个文本段落，返回JSON格式结果。

文本内容：
%s

请为每个段落提取：
1. concepts: 2-3个核心概念
2. themes: 1-2个主题分类
3. emotions: 1个情感状态
4. people: 提到的人名
5. importance_score: 重要性分数(0.1-1.0)
6. summary: 简短总结

JSON格式：
{
  "highlight_0": {
    "concepts": ["概念1", "概念2"],
    "themes": ["主题1"],
    "emotions": ["情感1"],
    "people": ["人名1"],
    "importance_score": 0.8,
    "summary": "简短总结"
  },
  "highlight_1": {
    "concepts": ["概念3", "概念4"],
    "themes": ["主题2"],
    "emotions": ["情感2"],
    "people": [],
    "importance_score": 0.6,
    "summary": "简短总结"
  }
}

只返回JSON数据：`, len(highlights), batchContent)
}
