package graph

import (
	"commentgraph/internal/models"
)

// Aggregate holds the corpus-wide comment counts the commenter-comment graph
// and the behavior detector share. Texts are compared exactly, without any
// normalisation.
type Aggregate struct {
	// AuthorTexts maps author -> text -> number of times the author posted it.
	AuthorTexts map[string]map[string]int
	// TextAuthors maps text -> distinct authors who posted it.
	TextAuthors map[string]map[string]struct{}
}

// NewAggregate counts every non-empty comment and reply text in videos.
func NewAggregate(videos []models.VideoDump) *Aggregate {
	a := &Aggregate{
		AuthorTexts: make(map[string]map[string]int),
		TextAuthors: make(map[string]map[string]struct{}),
	}
	for _, v := range videos {
		for _, r := range v.Records {
			if r.Author == "" || r.Text == "" {
				continue
			}
			texts, ok := a.AuthorTexts[r.Author]
			if !ok {
				texts = make(map[string]int)
				a.AuthorTexts[r.Author] = texts
			}
			texts[r.Text]++

			authors, ok := a.TextAuthors[r.Text]
			if !ok {
				authors = make(map[string]struct{})
				a.TextAuthors[r.Text] = authors
			}
			authors[r.Author] = struct{}{}
		}
	}
	return a
}

// Count returns how many times author posted text.
func (a *Aggregate) Count(author, text string) int {
	return a.AuthorTexts[author][text]
}

// DistinctAuthors returns how many different authors posted text.
func (a *Aggregate) DistinctAuthors(text string) int {
	return len(a.TextAuthors[text])
}

// Authors returns every author in sorted order.
func (a *Aggregate) Authors() []string {
	return sortedKeys(a.AuthorTexts)
}

// Texts returns every distinct text in sorted order.
func (a *Aggregate) Texts() []string {
	return sortedKeys(a.TextAuthors)
}

// TextsOf returns the distinct texts posted by author in sorted order.
func (a *Aggregate) TextsOf(author string) []string {
	return sortedKeys(a.AuthorTexts[author])
}

// AuthorsOf returns the distinct authors of text in sorted order.
func (a *Aggregate) AuthorsOf(text string) []string {
	return sortedKeys(a.TextAuthors[text])
}

// Flagger supplies behavior flags for commenter-comment nodes and edges.
type Flagger interface {
	CommenterBehavior(author string) models.Behavior
	CommentBehavior(text string) models.Behavior
	// PairFlagged reports whether the author-text edge takes part in a
	// detected behavior.
	PairFlagged(author, text string) bool
}

type noFlags struct{}

func (noFlags) CommenterBehavior(string) models.Behavior { return 0 }
func (noFlags) CommentBehavior(string) models.Behavior   { return 0 }
func (noFlags) PairFlagged(string, string) bool          { return false }

// CommenterComment is the bipartite graph of authors and the texts they posted.
type CommenterComment struct {
	*Aggregate
}

// BuildCommenterComment aggregates texts across all videos of the corpus.
func BuildCommenterComment(videos []models.VideoDump) *CommenterComment {
	return &CommenterComment{Aggregate: NewAggregate(videos)}
}

// Table renders Commenter and Comment nodes with their behavior flags, and
// author->text edges weighted by repeat count. With flaggedOnly set, only
// flagged nodes and flagged edges are kept. A nil Flagger flags nothing.
func (g *CommenterComment) Table(f Flagger, flaggedOnly bool) *models.Graph {
	if f == nil {
		f = noFlags{}
	}
	out := &models.Graph{Schema: models.SchemaCommenterComment}

	authors := g.Authors()
	for _, author := range authors {
		b := f.CommenterBehavior(author)
		if flaggedOnly && b == 0 {
			continue
		}
		out.Nodes = append(out.Nodes, models.Node{ID: author, Label: author, Type: models.NodeCommenter, Behavior: b})
	}
	for _, text := range g.Texts() {
		b := f.CommentBehavior(text)
		if flaggedOnly && b == 0 {
			continue
		}
		out.Nodes = append(out.Nodes, models.Node{ID: text, Label: text, Type: models.NodeComment, Behavior: b})
	}

	for _, author := range authors {
		for _, text := range g.TextsOf(author) {
			if flaggedOnly && !f.PairFlagged(author, text) {
				continue
			}
			out.Edges = append(out.Edges, models.Edge{Source: author, Target: text, Weight: g.Count(author, text)})
		}
	}
	return out
}
