package models

import "strings"

// Schema names one of the graph layouts built from a corpus.
type Schema string

const (
	SchemaCoCommenter      Schema = "cocommenter"
	SchemaCommenterComment Schema = "commentercomment"
	SchemaVideoCommenter   Schema = "videocommenter"
)

// Schemas lists every schema in build order.
var Schemas = []Schema{SchemaCoCommenter, SchemaCommenterComment, SchemaVideoCommenter}

// NodeType labels nodes of the bipartite schemas.
type NodeType string

const (
	NodeVideo     NodeType = "Video"
	NodeCommenter NodeType = "Commenter"
	NodeComment   NodeType = "Comment"
)

// Behavior is a set of heuristic flags attached to a node.
type Behavior uint8

const (
	BehaviorBotLike Behavior = 1 << iota
	BehaviorSpam
)

// Has reports whether every flag in f is set.
func (b Behavior) Has(f Behavior) bool {
	return f != 0 && b&f == f
}

// String renders the flag set the way graph tools expect it:
// "", "Bot-like", "Spam" or "Bot-like & Spam".
func (b Behavior) String() string {
	var parts []string
	if b.Has(BehaviorBotLike) {
		parts = append(parts, "Bot-like")
	}
	if b.Has(BehaviorSpam) {
		parts = append(parts, "Spam")
	}
	return strings.Join(parts, " & ")
}

// Node is one row of a node table.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     NodeType `json:"type,omitempty"`
	Behavior Behavior `json:"-"`
}

// Edge is one row of an edge table. Weight is zero for unweighted schemas.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight,omitempty"`
}

// Graph is the node and edge table of one schema, rows in canonical order.
type Graph struct {
	Schema Schema `json:"schema"`
	Nodes  []Node `json:"nodes"`
	Edges  []Edge `json:"edges"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return len(g.Nodes) == 0
}
