package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commentgraph/internal/models"
)

const sampleDump = `Number of Comments: 3

Author: Alice Smith@alice
Comment: First!
Likes: 4
Published At: 2024-03-04T10:00:00Z
Comment ID: c1
--------------------------------------------------

Author: @bob (Reply to Comment ID: c1)
Reply: agreed
Likes: 0
Published At: 2024-03-04T11:00:00Z
Comment ID: r1, Reply to ID: c1
--------------------------------------------------

Author: Carol@carol
Comment: a long comment
that wrapped onto
two more lines
Likes: 12
Published At: 2024-03-04T12:00:00Z
Comment ID: c2
--------------------------------------------------

`

func collectAll(t *testing.T, text string) ([]models.CommentRecord, []error) {
	t.Helper()
	var (
		records []models.CommentRecord
		errs    []error
	)
	for rec, err := range Parse(text) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}

func TestParse(t *testing.T) {
	records, errs := collectAll(t, sampleDump)
	require.Empty(t, errs)
	require.Len(t, records, 3)

	assert.Equal(t, models.CommentRecord{
		Author:      "alice",
		DisplayName: "Alice Smith",
		Kind:        models.KindComment,
		Text:        "First!",
		LikeCount:   4,
		PublishedAt: "2024-03-04T10:00:00Z",
		CommentID:   "c1",
	}, records[0])

	reply := records[1]
	assert.Equal(t, "bob", reply.Author)
	assert.Empty(t, reply.DisplayName)
	assert.True(t, reply.IsReply())
	assert.Equal(t, "agreed", reply.Text)
	assert.Equal(t, "r1", reply.CommentID)
	assert.Equal(t, "c1", reply.ReplyTo)

	assert.Equal(t, "a long comment that wrapped onto two more lines", records[2].Text)
	assert.Equal(t, 12, records[2].LikeCount)
}

func TestParseIsRestartable(t *testing.T) {
	seq := Parse(sampleDump)

	var first, second []models.CommentRecord
	for rec, err := range seq {
		require.NoError(t, err)
		first = append(first, rec)
	}
	for rec, err := range seq {
		require.NoError(t, err)
		second = append(second, rec)
	}
	assert.Equal(t, first, second)
}

func TestParseEmpty(t *testing.T) {
	records, errs := collectAll(t, "")
	assert.Empty(t, records)
	assert.Empty(t, errs)
}

func TestParseDropsBlocksWithoutAuthor(t *testing.T) {
	text := strings.Join([]string{
		"Author: no handle here",
		"Comment: orphan",
		Delimiter,
		"Comment: no author line at all",
		Delimiter,
		"Author: someone@",
		"Comment: empty handle",
		Delimiter,
		"Author: Dave@dave",
		"Comment: kept",
		Delimiter,
	}, "\n")

	records, errs := collectAll(t, text)
	require.Empty(t, errs)
	require.Len(t, records, 1)
	assert.Equal(t, "dave", records[0].Author)
}

func TestParseMalformedLikesDoesNotStopParse(t *testing.T) {
	text := strings.Join([]string{
		"Author: @eve",
		"Comment: buy now!",
		"Likes: lots",
		"Comment ID: e1",
		Delimiter,
		"Author: @frank",
		"Comment: no likes line",
		"Comment ID: f1",
		Delimiter,
		"Author: @gina",
		"Comment: negative",
		"Likes: -3",
		Delimiter,
		"Author: @hal",
		"Comment: fine",
		"Likes: 2",
		Delimiter,
	}, "\n")

	records, errs := collectAll(t, text)
	require.Len(t, errs, 2)
	require.Len(t, records, 2)

	var malformed *MalformedRecordError
	require.True(t, errors.As(errs[0], &malformed))
	assert.Equal(t, TagLikes, malformed.Field)
	assert.Equal(t, "lots", malformed.Value)
	assert.Equal(t, 3, malformed.Line)
	assert.Equal(t, "eve", malformed.Record.Author)
	assert.Equal(t, "e1", malformed.Record.CommentID)
	assert.Contains(t, malformed.Error(), "Likes")

	require.True(t, errors.As(errs[1], &malformed))
	assert.ErrorIs(t, malformed, errNegative)

	assert.Equal(t, "frank", records[0].Author)
	assert.Zero(t, records[0].LikeCount)
	assert.Equal(t, "hal", records[1].Author)
}

func TestParseWindowsLineEndings(t *testing.T) {
	text := "Author: @ivy\r\nComment: hi\r\nLikes: 1\r\n" + Delimiter + "\r\n"
	records, errs := collectAll(t, text)
	require.Empty(t, errs)
	require.Len(t, records, 1)
	assert.Equal(t, "ivy", records[0].Author)
	assert.Equal(t, "hi", records[0].Text)
}

func TestParseStopsWhenConsumerStops(t *testing.T) {
	count := 0
	for range Parse(sampleDump) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestSplitAuthor(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		handle  string
		display string
		replyTo string
		ok      bool
	}{
		{name: "display and handle", value: "Jane Doe@jane", handle: "jane", display: "Jane Doe", ok: true},
		{name: "handle only", value: "@jane", handle: "jane", ok: true},
		{name: "first at wins", value: "a@b@c", handle: "b@c", display: "a", ok: true},
		{name: "reply suffix", value: "@jane (Reply to Comment ID: xyz)", handle: "jane", replyTo: "xyz", ok: true},
		{name: "no at", value: "Jane", ok: false},
		{name: "empty handle", value: "Jane@  ", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, display, replyTo, ok := splitAuthor(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.handle, handle)
			assert.Equal(t, tt.display, display)
			assert.Equal(t, tt.replyTo, replyTo)
		})
	}
}

func TestSplitCommentID(t *testing.T) {
	id, parent := splitCommentID("abc")
	assert.Equal(t, "abc", id)
	assert.Empty(t, parent)

	id, parent = splitCommentID("abc.def, Reply to ID: abc")
	assert.Equal(t, "abc.def", id)
	assert.Equal(t, "abc", parent)
}
