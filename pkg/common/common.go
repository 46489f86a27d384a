package common

import "fmt"

// HighlightType classifies how a highlight was captured in the source export.
type HighlightType string

const (
	HighlightTypeHighlight HighlightType = "highlight"
	HighlightTypeNote      HighlightType = "note"
	HighlightTypeBookmark  HighlightType = "bookmark"
)

// Location identifies where in a book a highlight was taken.
type Location struct {
	Page     int `json:"page"`
	Position int `json:"position"`
}

// Highlight is a user-captured excerpt of reading material. Highlights are
// produced by the export parser and are never mutated by the analysis
// pipeline.
type Highlight struct {
	Content  string        `json:"content"`
	Location Location      `json:"location"`
	Section  string        `json:"section,omitempty"`
	Type     HighlightType `json:"type"`
}

// BookMetadata describes the book a set of highlights was taken from.
// The title doubles as the namespacing key for all ids derived from the book.
type BookMetadata struct {
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
}

// Book bundles a book's metadata with its ordered highlight sequence.
type Book struct {
	Metadata   BookMetadata `json:"metadata"`
	Highlights []Highlight  `json:"highlights"`
}

// HighlightID derives the canonical id for a highlight of this book:
// {title}_{page}_{position}. The same scheme is used everywhere a result
// is matched back to its highlight.
func (b *Book) HighlightID(h Highlight) string {
	return fmt.Sprintf("%s_%d_%d", b.Metadata.Title, h.Location.Page, h.Location.Position)
}

// AnalysisResult holds the structured knowledge extracted from one highlight.
// Results are created once per highlight per run and are immutable afterwards.
type AnalysisResult struct {
	HighlightID     string   `json:"highlight_id"`
	Concepts        []string `json:"concepts"`
	Themes          []string `json:"themes"`
	Emotions        []string `json:"emotions"`
	People          []string `json:"people"`
	ImportanceScore float64  `json:"importance_score"`
	Summary         string   `json:"summary"`
	Tags            []string `json:"tags"`
}

// Node types of the knowledge graph.
const (
	NodeTypeBook    = "book"
	NodeTypeConcept = "concept"
	NodeTypeTheme   = "theme"
	NodeTypePerson  = "person"
)

// Edge relationships of the knowledge graph.
const (
	RelationContains      = "contains"
	RelationExplores      = "explores"
	RelationMentions      = "mentions"
	RelationSharesConcept = "shares_concept"
)

// KnowledgeNode is a node in the knowledge graph. The id is namespaced by
// node type (book_*, concept_*, theme_*, person_*) so labels may repeat
// across types without colliding.
type KnowledgeNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Description string `json:"description"`
	BookID      string `json:"book_id"`
}

// KnowledgeEdge is a weighted, directional edge between two node or
// highlight ids. Edges are not deduplicated: several edges between the same
// pair with different relationships or weights are meaningful.
type KnowledgeEdge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Relationship string  `json:"relationship"`
	Weight       float64 `json:"weight"`
}

// KnowledgeGraph holds the insertion-ordered nodes and the edges built from
// one book's analysis results. A graph is always rebuilt from scratch for a
// run, never patched.
type KnowledgeGraph struct {
	Nodes []KnowledgeNode `json:"nodes"`
	Edges []KnowledgeEdge `json:"edges"`
}

// Statistics aggregates frequency and importance figures over a book's
// analysis results.
type Statistics struct {
	TotalHighlights     int                    `json:"total_highlights"`
	TypeDistribution    map[string]int         `json:"type_distribution"`
	SectionDistribution map[string]int         `json:"section_distribution"`
	TopConcepts         []FrequencyEntry       `json:"top_concepts"`
	TopThemes           []FrequencyEntry       `json:"top_themes"`
	AverageImportance   float64                `json:"average_importance"`
	Importance          ImportanceDistribution `json:"importance_distribution"`
}

// FrequencyEntry is one row of a frequency table, most frequent first.
type FrequencyEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ImportanceDistribution counts results per importance band. High is a score
// above 0.7, low is below 0.3, medium is everything in between inclusive.
type ImportanceDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// BookReport is the full output of one analysis run, handed to the
// rendering/export collaborator. It is fully JSON-serializable and carries
// no reference to cache or cost state.
type BookReport struct {
	Book            Book             `json:"book"`
	AnalysisResults []AnalysisResult `json:"analysis_results"`
	KnowledgeGraph  KnowledgeGraph   `json:"knowledge_graph"`
	BookSummary     string           `json:"book_summary"`
	Statistics      Statistics       `json:"statistics"`
}
