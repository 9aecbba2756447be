// Package segment splits heading-annotated document text into titled sections.
package segment

// Section is the unit of ranking.
//
// Scores are nil until the stage that computes them has run, so "not yet
// scored" and "scored zero" stay distinguishable.
type Section struct {
	// Index is assigned at creation, is unique within a run and never changes.
	// It pairs a section with its embedding and breaks ranking ties.
	Index int

	DocumentID   string
	PageEstimate int
	Title        string
	Level        int
	Content      string

	SemanticScore  *float64
	PageRankScore  *float64
	FinalScore     *float64
	ImportanceRank int
}

// Text is the string the section is embedded as.
func (s *Section) Text() string {
	return s.Title + ". " + s.Content
}

// Semantic returns the semantic score, or 0 if unscored.
func (s *Section) Semantic() float64 {
	if s.SemanticScore == nil {
		return 0
	}
	return *s.SemanticScore
}

// Final returns the final score, or 0 if unscored.
func (s *Section) Final() float64 {
	if s.FinalScore == nil {
		return 0
	}
	return *s.FinalScore
}

// Ranked reports whether ranking has assigned a final position.
func (s *Section) Ranked() bool {
	return s.ImportanceRank > 0 && s.FinalScore != nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
