package graph

import (
	"fmt"
	"sort"
	"strings"

	"marginalia/pkg/common"
)

// BuildReport bundles the complete analysis output for one book: the raw
// results, the knowledge graph, a human-readable summary and the run
// statistics.
func BuildReport(book *common.Book, results []common.AnalysisResult) *common.BookReport {
	return &common.BookReport{
		Book:            *book,
		AnalysisResults: results,
		KnowledgeGraph:  *BuildGraph(book, results),
		BookSummary:     BookSummary(book, results),
		Statistics:      BuildStatistics(book, results),
	}
}

// BookSummary renders a short Chinese-language report of what the analysis
// found: counts, average importance and the leading concepts and themes.
func BookSummary(book *common.Book, results []common.AnalysisResult) string {
	total := len(results)
	avgImportance := 0.0
	if total > 0 {
		for _, result := range results {
			avgImportance += result.ImportanceScore
		}
		avgImportance /= float64(total)
	}

	concepts := distinctInOrder(results, func(r common.AnalysisResult) []string { return r.Concepts })
	themes := distinctInOrder(results, func(r common.AnalysisResult) []string { return r.Themes })
	people := distinctInOrder(results, func(r common.AnalysisResult) []string { return r.People })

	return fmt.Sprintf(`《%s》阅读分析报告：
- 总标注数：%d
- 平均重要性：%.2f
- 核心概念数：%d
- 主要主题数：%d
- 涉及人物数：%d

主要概念：%s
主要主题：%s`,
		book.Metadata.Title,
		total,
		avgImportance,
		len(concepts),
		len(themes),
		len(people),
		strings.Join(capStrings(concepts, 5), ", "),
		strings.Join(capStrings(themes, 3), ", "),
	)
}

// BuildStatistics computes the distribution tables for a finished run:
// highlight counts by type and section, the ten most frequent concepts and
// themes, and importance both as an average and banded at 0.3 and 0.7.
func BuildStatistics(book *common.Book, results []common.AnalysisResult) common.Statistics {
	if len(results) == 0 {
		return common.Statistics{}
	}

	typeDist := make(map[string]int)
	sectionDist := make(map[string]int)
	for _, h := range book.Highlights {
		typeDist[string(h.Type)]++
		section := h.Section
		if section == "" {
			section = "Unknown"
		}
		sectionDist[section]++
	}

	conceptFreq := make(map[string]int)
	themeFreq := make(map[string]int)
	totalImportance := 0.0
	var importance common.ImportanceDistribution
	for _, result := range results {
		for _, concept := range result.Concepts {
			conceptFreq[concept]++
		}
		for _, theme := range result.Themes {
			themeFreq[theme]++
		}
		totalImportance += result.ImportanceScore
		switch {
		case result.ImportanceScore > 0.7:
			importance.High++
		case result.ImportanceScore < 0.3:
			importance.Low++
		default:
			importance.Medium++
		}
	}

	return common.Statistics{
		TotalHighlights:     len(results),
		TypeDistribution:    typeDist,
		SectionDistribution: sectionDist,
		TopConcepts:         topFrequencies(conceptFreq, 10),
		TopThemes:           topFrequencies(themeFreq, 10),
		AverageImportance:   totalImportance / float64(len(results)),
		Importance:          importance,
	}
}

// topFrequencies returns the n most frequent entries, ties broken by label
// so output is stable.
func topFrequencies(freq map[string]int, n int) []common.FrequencyEntry {
	entries := make([]common.FrequencyEntry, 0, len(freq))
	for label, count := range freq {
		entries = append(entries, common.FrequencyEntry{Label: label, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func distinctInOrder(results []common.AnalysisResult, pick func(common.AnalysisResult) []string) []string {
	seen := make(map[string]struct{})
	var distinct []string
	for _, result := range results {
		for _, item := range pick(result) {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			distinct = append(distinct, item)
		}
	}
	return distinct
}

func capStrings(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
