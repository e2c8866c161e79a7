// Package graph builds node and edge tables from a loaded comment corpus.
//
// Three layouts are supported: co-commenter (authors linked by shared
// videos), commenter-comment (authors linked to the texts they posted) and
// video-commenter (authors linked to the videos they commented on). Every
// Table method returns rows sorted lexicographically so repeated runs over
// the same corpus produce identical output.
package graph

import (
	"cmp"
	"maps"
	"slices"

	"commentgraph/internal/models"
)

// Pair is an unordered pair of distinct authors, stored with A < B.
type Pair struct {
	A, B string
}

// NewPair normalises a and b into a Pair.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// CoCommenter links authors who commented on the same video. The weight of a
// pair is the number of videos both authors commented on.
type CoCommenter struct {
	Authors map[string]struct{}
	Weights map[Pair]int
}

// BuildCoCommenter builds the co-commenter graph. Replies count as
// commenting; several comments by one author on a video count once.
func BuildCoCommenter(videos []models.VideoDump) *CoCommenter {
	g := &CoCommenter{
		Authors: make(map[string]struct{}),
		Weights: make(map[Pair]int),
	}
	for _, v := range videos {
		authors := v.Authors()
		for i, a := range authors {
			g.Authors[a] = struct{}{}
			for _, b := range authors[i+1:] {
				g.Weights[NewPair(a, b)]++
			}
		}
	}
	return g
}

// Weight returns the number of shared videos of a and b. It is symmetric and
// zero for a == b.
func (g *CoCommenter) Weight(a, b string) int {
	if a == b {
		return 0
	}
	return g.Weights[NewPair(a, b)]
}

// Table renders the graph as Id/Label nodes and weighted Source/Target edges.
func (g *CoCommenter) Table() *models.Graph {
	out := &models.Graph{
		Schema: models.SchemaCoCommenter,
		Nodes:  make([]models.Node, 0, len(g.Authors)),
		Edges:  make([]models.Edge, 0, len(g.Weights)),
	}
	for _, a := range sortedKeys(g.Authors) {
		out.Nodes = append(out.Nodes, models.Node{ID: a, Label: a})
	}
	for p, w := range g.Weights {
		out.Edges = append(out.Edges, models.Edge{Source: p.A, Target: p.B, Weight: w})
	}
	sortEdges(out.Edges)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func sortEdges(edges []models.Edge) {
	slices.SortFunc(edges, func(a, b models.Edge) int {
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})
}
