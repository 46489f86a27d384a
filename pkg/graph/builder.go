// Package graph assembles knowledge graphs and summary reports from
// highlight analysis results.
package graph

import (
	"fmt"

	"marginalia/pkg/common"
	"marginalia/pkg/logger"
)

// BuildGraph constructs the knowledge graph for one book. The book node
// comes first, then one node per distinct concept, theme and person across
// all results. Node ids are namespaced by type (book_*, concept_*, theme_*,
// person_*) so a person and a concept with the same label stay distinct;
// the first occurrence of an id wins and later duplicates only add edges.
//
// Every concept, theme and person also yields an edge from the book node
// (contains, explores, mentions; weight 1.0), one per occurrence. Finally
// each pair of results sharing at least one concept is linked highlight to
// highlight with a shares_concept edge per shared concept, weighted by
// |shared| / max(|concepts A|, |concepts B|).
func BuildGraph(book *common.Book, results []common.AnalysisResult) *common.KnowledgeGraph {
	bookID := book.Metadata.Title

	nodes := []common.KnowledgeNode{{
		ID:          "book_" + bookID,
		Label:       bookID,
		Type:        common.NodeTypeBook,
		Description: fmt.Sprintf("《%s》 - %s", bookID, book.Metadata.Author),
		BookID:      bookID,
	}}
	edges := []common.KnowledgeEdge{}
	seen := map[string]struct{}{nodes[0].ID: {}}

	addNode := func(nodeType, label, description string) string {
		id := nodeType + "_" + label
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			nodes = append(nodes, common.KnowledgeNode{
				ID:          id,
				Label:       label,
				Type:        nodeType,
				Description: description,
				BookID:      bookID,
			})
		}
		return id
	}

	for _, result := range results {
		for _, concept := range result.Concepts {
			id := addNode(common.NodeTypeConcept, concept, "概念："+concept)
			edges = append(edges, common.KnowledgeEdge{
				Source:       nodes[0].ID,
				Target:       id,
				Relationship: common.RelationContains,
				Weight:       1.0,
			})
		}
		for _, theme := range result.Themes {
			id := addNode(common.NodeTypeTheme, theme, "主题："+theme)
			edges = append(edges, common.KnowledgeEdge{
				Source:       nodes[0].ID,
				Target:       id,
				Relationship: common.RelationExplores,
				Weight:       1.0,
			})
		}
		for _, person := range result.People {
			id := addNode(common.NodeTypePerson, person, "人物："+person)
			edges = append(edges, common.KnowledgeEdge{
				Source:       nodes[0].ID,
				Target:       id,
				Relationship: common.RelationMentions,
				Weight:       1.0,
			})
		}
	}

	edges = append(edges, sharedConceptEdges(results)...)

	logger.Info("knowledge graph built",
		"book", bookID,
		"nodes", len(nodes),
		"edges", len(edges),
	)

	return &common.KnowledgeGraph{Nodes: nodes, Edges: edges}
}

// sharedConceptEdges links every pair of results with overlapping concept
// sets. Pairs are visited in input order (i < j), so edge direction always
// runs from the earlier highlight to the later one.
func sharedConceptEdges(results []common.AnalysisResult) []common.KnowledgeEdge {
	var edges []common.KnowledgeEdge

	for i, a := range results {
		conceptsA := make(map[string]struct{}, len(a.Concepts))
		for _, concept := range a.Concepts {
			conceptsA[concept] = struct{}{}
		}

		for _, b := range results[i+1:] {
			var shared []string
			for _, concept := range b.Concepts {
				if _, ok := conceptsA[concept]; ok {
					shared = append(shared, concept)
				}
			}
			if len(shared) == 0 {
				continue
			}

			weight := float64(len(shared)) / float64(max(len(a.Concepts), len(b.Concepts)))
			for range shared {
				edges = append(edges, common.KnowledgeEdge{
					Source:       a.HighlightID,
					Target:       b.HighlightID,
					Relationship: common.RelationSharesConcept,
					Weight:       weight,
				})
			}
		}
	}

	return edges
}
