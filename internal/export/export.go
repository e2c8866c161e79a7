// Package export writes graph tables as CSV files that graph tools such as
// Gephi can import.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"commentgraph/internal/models"
)

// ExportError reports a failure to write an output file.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// layout fixes the columns a schema emits.
type layout struct {
	nodeType     bool
	nodeBehavior bool
	edgeWeight   bool
}

var layouts = map[models.Schema]layout{
	models.SchemaCoCommenter:      {edgeWeight: true},
	models.SchemaCommenterComment: {nodeType: true, nodeBehavior: true, edgeWeight: true},
	models.SchemaVideoCommenter:   {nodeType: true},
}

func (l layout) nodeHeader() []string {
	h := []string{"Id", "Label"}
	if l.nodeType {
		h = append(h, "Type")
	}
	if l.nodeBehavior {
		h = append(h, "Behavior")
	}
	return h
}

func (l layout) edgeHeader() []string {
	h := []string{"Source", "Target"}
	if l.edgeWeight {
		h = append(h, "Weight")
	}
	return h
}

// Paths are the files written for one schema.
type Paths struct {
	Nodes string `json:"nodes"`
	Edges string `json:"edges"`
}

// Export writes <schema>_nodes.csv and <schema>_edges.csv into dir,
// replacing any previous files. Each file is rendered in memory first and
// then renamed into place, so a failed export never leaves a partial table.
func Export(g *models.Graph, dir string) (Paths, error) {
	l, ok := layouts[g.Schema]
	if !ok {
		return Paths{}, fmt.Errorf("unknown schema %q", g.Schema)
	}

	paths := Paths{
		Nodes: filepath.Join(dir, string(g.Schema)+"_nodes.csv"),
		Edges: filepath.Join(dir, string(g.Schema)+"_edges.csv"),
	}

	nodes, err := renderNodes(g.Nodes, l)
	if err != nil {
		return Paths{}, &ExportError{Path: paths.Nodes, Err: err}
	}
	edges, err := renderEdges(g.Edges, l)
	if err != nil {
		return Paths{}, &ExportError{Path: paths.Edges, Err: err}
	}

	if err := writeAtomic(paths.Nodes, nodes); err != nil {
		return Paths{}, err
	}
	if err := writeAtomic(paths.Edges, edges); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

func renderNodes(nodes []models.Node, l layout) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(l.nodeHeader()); err != nil {
		return nil, err
	}
	for _, n := range nodes {
		row := []string{n.ID, n.Label}
		if l.nodeType {
			row = append(row, string(n.Type))
		}
		if l.nodeBehavior {
			row = append(row, n.Behavior.String())
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderEdges(edges []models.Edge, l layout) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(l.edgeHeader()); err != nil {
		return nil, err
	}
	for _, e := range edges {
		row := []string{e.Source, e.Target}
		if l.edgeWeight {
			row = append(row, strconv.Itoa(e.Weight))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// WriteRecordsJSON dumps every parsed record of the corpus to
// <dir>/records.json.
func WriteRecordsJSON(videos []models.VideoDump, dir string) (string, error) {
	path := filepath.Join(dir, "records.json")

	records := make([]models.CommentRecord, 0)
	for _, v := range videos {
		records = append(records, v.Records...)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(records); err != nil {
		return "", &ExportError{Path: path, Err: err}
	}
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ExportError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return &ExportError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &ExportError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &ExportError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &ExportError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &ExportError{Path: path, Err: err}
	}
	return nil
}
