package graph

import (
	"commentgraph/internal/models"
)

// Membership is an unweighted commenter->video edge.
type Membership struct {
	Commenter string
	VideoID   string
}

// VideoCommenter is the bipartite graph of videos and their commenters.
type VideoCommenter struct {
	Videos     map[string]struct{}
	Commenters map[string]struct{}
	Edges      map[Membership]struct{}
}

// BuildVideoCommenter links each author to every video they commented on,
// once per video. Videos without comments still become nodes.
func BuildVideoCommenter(videos []models.VideoDump) *VideoCommenter {
	g := &VideoCommenter{
		Videos:     make(map[string]struct{}),
		Commenters: make(map[string]struct{}),
		Edges:      make(map[Membership]struct{}),
	}
	for _, v := range videos {
		g.Videos[v.VideoID] = struct{}{}
		for _, r := range v.Records {
			if r.Author == "" {
				continue
			}
			g.Commenters[r.Author] = struct{}{}
			g.Edges[Membership{Commenter: r.Author, VideoID: v.VideoID}] = struct{}{}
		}
	}
	return g
}

// Degree returns the number of distinct commenters linked to videoID.
func (g *VideoCommenter) Degree(videoID string) int {
	n := 0
	for m := range g.Edges {
		if m.VideoID == videoID {
			n++
		}
	}
	return n
}

// Table renders Video nodes followed by Commenter nodes, and unweighted
// commenter->video edges.
func (g *VideoCommenter) Table() *models.Graph {
	out := &models.Graph{
		Schema: models.SchemaVideoCommenter,
		Nodes:  make([]models.Node, 0, len(g.Videos)+len(g.Commenters)),
		Edges:  make([]models.Edge, 0, len(g.Edges)),
	}
	for _, id := range sortedKeys(g.Videos) {
		out.Nodes = append(out.Nodes, models.Node{ID: id, Label: id, Type: models.NodeVideo})
	}
	for _, c := range sortedKeys(g.Commenters) {
		out.Nodes = append(out.Nodes, models.Node{ID: c, Label: c, Type: models.NodeCommenter})
	}
	for m := range g.Edges {
		out.Edges = append(out.Edges, models.Edge{Source: m.Commenter, Target: m.VideoID})
	}
	sortEdges(out.Edges)
	return out
}
