package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commentgraph/internal/models"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestExportColumnsPerSchema(t *testing.T) {
	tests := []struct {
		name  string
		graph *models.Graph
		nodes string
		edges string
	}{
		{
			name: "cocommenter",
			graph: &models.Graph{
				Schema: models.SchemaCoCommenter,
				Nodes:  []models.Node{{ID: "alice", Label: "alice"}, {ID: "bob", Label: "bob"}},
				Edges:  []models.Edge{{Source: "alice", Target: "bob", Weight: 3}},
			},
			nodes: "Id,Label\nalice,alice\nbob,bob\n",
			edges: "Source,Target,Weight\nalice,bob,3\n",
		},
		{
			name: "commentercomment",
			graph: &models.Graph{
				Schema: models.SchemaCommenterComment,
				Nodes: []models.Node{
					{ID: "eve", Label: "eve", Type: models.NodeCommenter, Behavior: models.BehaviorBotLike | models.BehaviorSpam},
					{ID: "adam", Label: "adam", Type: models.NodeCommenter},
					{ID: "buy, now!", Label: "buy, now!", Type: models.NodeComment, Behavior: models.BehaviorSpam},
				},
				Edges: []models.Edge{{Source: "eve", Target: "buy, now!", Weight: 6}},
			},
			nodes: "Id,Label,Type,Behavior\neve,eve,Commenter,Bot-like & Spam\nadam,adam,Commenter,\n\"buy, now!\",\"buy, now!\",Comment,Spam\n",
			edges: "Source,Target,Weight\neve,\"buy, now!\",6\n",
		},
		{
			name: "videocommenter",
			graph: &models.Graph{
				Schema: models.SchemaVideoCommenter,
				Nodes:  []models.Node{{ID: "v1", Label: "v1", Type: models.NodeVideo}, {ID: "bob", Label: "bob", Type: models.NodeCommenter}},
				Edges:  []models.Edge{{Source: "bob", Target: "v1"}},
			},
			nodes: "Id,Label,Type\nv1,v1,Video\nbob,bob,Commenter\n",
			edges: "Source,Target\nbob,v1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			paths, err := Export(tt.graph, dir)
			require.NoError(t, err)

			assert.Equal(t, filepath.Join(dir, tt.name+"_nodes.csv"), paths.Nodes)
			assert.Equal(t, filepath.Join(dir, tt.name+"_edges.csv"), paths.Edges)
			assert.Equal(t, tt.nodes, readFile(t, paths.Nodes))
			assert.Equal(t, tt.edges, readFile(t, paths.Edges))
		})
	}
}

func TestExportOverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	g := &models.Graph{Schema: models.SchemaCoCommenter, Nodes: []models.Node{{ID: "a", Label: "a"}}}
	_, err := Export(g, dir)
	require.NoError(t, err)

	g.Nodes = nil
	paths, err := Export(g, dir)
	require.NoError(t, err)
	assert.Equal(t, "Id,Label\n", readFile(t, paths.Nodes))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestExportCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	_, err := Export(&models.Graph{Schema: models.SchemaVideoCommenter}, dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestExportFailure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Export(&models.Graph{Schema: models.SchemaCoCommenter}, filepath.Join(blocker, "out"))
	var exportErr *ExportError
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, filepath.Join(blocker, "out", "cocommenter_nodes.csv"), exportErr.Path)
}

func TestExportUnknownSchema(t *testing.T) {
	_, err := Export(&models.Graph{Schema: "other"}, t.TempDir())
	assert.Error(t, err)
}

func TestWriteRecordsJSON(t *testing.T) {
	dir := t.TempDir()
	videos := []models.VideoDump{{
		VideoID: "v1",
		Records: []models.CommentRecord{
			{Author: "alice", Kind: models.KindComment, Text: "<3", LikeCount: 2, CommentID: "c1", VideoID: "v1"},
			{Author: "bob", Kind: models.KindReply, Text: "ok", CommentID: "r1", ReplyTo: "c1", VideoID: "v1"},
		},
	}}

	path, err := WriteRecordsJSON(videos, dir)
	require.NoError(t, err)

	raw := readFile(t, path)
	assert.Contains(t, raw, `"text": "<3"`)

	var got []models.CommentRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, videos[0].Records, got)
}

func TestWriteRecordsJSONEmpty(t *testing.T) {
	path, err := WriteRecordsJSON(nil, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "[]\n", readFile(t, path))
}
