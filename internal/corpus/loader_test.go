package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"commentgraph/internal/parser"
)

func dump(blocks ...[2]string) string {
	var sb strings.Builder
	sb.WriteString("Number of Comments: 0\n\n")
	for _, b := range blocks {
		sb.WriteString("Author: @" + b[0] + "\n")
		sb.WriteString("Comment: " + b[1] + "\n")
		sb.WriteString("Likes: 1\n")
		sb.WriteString("Published At: 2024-01-01T00:00:00Z\n")
		sb.WriteString("Comment ID: id\n")
		sb.WriteString(parser.Delimiter + "\n\n")
	}
	return sb.String()
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vidA.txt", dump([2]string{"alice", "hi"}, [2]string{"bob", "yo"}))
	writeFile(t, dir, "vidB.txt", dump([2]string{"bob", "again"}))
	writeFile(t, dir, "notes.md", dump([2]string{"mallory", "ignored"}))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	l := NewLoader(Options{}, zaptest.NewLogger(t))
	c := l.Load(dir, 10)

	require.Len(t, c.Videos, 2)
	assert.Equal(t, "vidA", c.Videos[0].VideoID)
	assert.Equal(t, "vidB", c.Videos[1].VideoID)
	assert.Equal(t, 3, c.RecordCount())
	assert.Empty(t, c.Skipped)
	for _, r := range c.Videos[0].Records {
		assert.Equal(t, "vidA", r.VideoID)
	}
}

func TestLoadRespectsMaxVideos(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		writeFile(t, dir, name, dump([2]string{"x", name}))
	}

	c := NewLoader(Options{}, zaptest.NewLogger(t)).Load(dir, 2)
	require.Len(t, c.Videos, 2)
	assert.Equal(t, "a", c.Videos[0].VideoID)
	assert.Equal(t, "b", c.Videos[1].VideoID)
}

func TestLoadAbortedFilesDoNotCount(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Author: @x\nComment: hi\nLikes: many\n"+parser.Delimiter+"\n")
	writeFile(t, dir, "b.txt", dump([2]string{"y", "ok"}))
	writeFile(t, dir, "c.txt", dump([2]string{"z", "ok"}))

	c := NewLoader(Options{LikesPolicy: parser.PolicyAbort}, zaptest.NewLogger(t)).Load(dir, 2)

	require.Len(t, c.Videos, 2)
	assert.Equal(t, "b", c.Videos[0].VideoID)
	assert.Equal(t, "c", c.Videos[1].VideoID)
	require.Len(t, c.Skipped, 1)
	assert.Equal(t, filepath.Join(dir, "a.txt"), c.Skipped[0].Path)

	var malformed *parser.MalformedRecordError
	assert.True(t, errors.As(c.Skipped[0], &malformed))
}

func TestLoadDropPolicyCountsDroppedRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Author: @x\nComment: hi\nLikes: many\n"+parser.Delimiter+"\n"+dump([2]string{"y", "ok"}))

	c := NewLoader(Options{}, zaptest.NewLogger(t)).Load(dir, 5)
	require.Len(t, c.Videos, 1)
	assert.Len(t, c.Videos[0].Records, 1)
	assert.Equal(t, 1, c.RecordsDropped)
}

func TestLoadUnreadableFileIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("file permissions are not enforced")
	}
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", dump([2]string{"x", "hi"}))
	writeFile(t, dir, "b.txt", dump([2]string{"y", "hi"}))
	require.NoError(t, os.Chmod(filepath.Join(dir, "a.txt"), 0o000))

	c := NewLoader(Options{}, zaptest.NewLogger(t)).Load(dir, 1)
	require.Len(t, c.Videos, 1)
	assert.Equal(t, "b", c.Videos[0].VideoID)
	require.Len(t, c.Skipped, 1)
	assert.ErrorIs(t, c.Skipped[0], os.ErrPermission)
}

func TestLoadMissingDirectory(t *testing.T) {
	c := NewLoader(Options{}, zaptest.NewLogger(t)).Load(filepath.Join(t.TempDir(), "nope"), 5)
	assert.Empty(t, c.Videos)
	assert.Empty(t, c.Skipped)
}

func TestLoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "")

	c := NewLoader(Options{}, zaptest.NewLogger(t)).Load(dir, 5)
	require.Len(t, c.Videos, 1)
	assert.Empty(t, c.Videos[0].Records)
}

func TestVideoID(t *testing.T) {
	assert.Equal(t, "Uz0vRIcJ5kg", VideoID("/data/Uz0vRIcJ5kg.txt"))
	assert.Equal(t, "a.b", VideoID("a.b.txt"))
	assert.Equal(t, "plain", VideoID("plain"))
}
