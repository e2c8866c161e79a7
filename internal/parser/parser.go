// Package parser turns the text of a video comment dump into comment records.
//
// A dump is a sequence of blocks separated by a line of fifty dashes. Each
// block holds one comment or reply:
//
//	Author: Name@handle
//	Comment: text            (or "Reply: text")
//	Likes: 3
//	Published At: 2024-03-04T10:00:00Z
//	Comment ID: abc[, Reply to ID: parent]
//
// Blocks without a resolvable author are dropped silently.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"commentgraph/internal/models"
)

// Delimiter separates blocks in a dump file.
const Delimiter = "--------------------------------------------------"

const (
	replyAuthorMarker = "(Reply to Comment ID:"
	replyIDMarker     = "Reply to ID:"

	maxLineSize = 1 << 20
)

// Tag identifies the field a dump line carries.
type Tag int

const (
	TagNone Tag = iota
	TagAuthor
	TagComment
	TagReply
	TagLikes
	TagPublishedAt
	TagCommentID
)

var tagPrefixes = [...]struct {
	tag    Tag
	prefix string
}{
	{TagAuthor, "Author:"},
	{TagComment, "Comment:"},
	{TagReply, "Reply:"},
	{TagLikes, "Likes:"},
	{TagPublishedAt, "Published At:"},
	{TagCommentID, "Comment ID:"},
}

func (t Tag) String() string {
	for _, p := range tagPrefixes {
		if p.tag == t {
			return strings.TrimSuffix(p.prefix, ":")
		}
	}
	return "none"
}

// classify returns the tag of a trimmed line and the trimmed value after its prefix.
func classify(line string) (Tag, string) {
	for _, p := range tagPrefixes {
		if strings.HasPrefix(line, p.prefix) {
			return p.tag, strings.TrimSpace(line[len(p.prefix):])
		}
	}
	return TagNone, line
}

// MalformedRecordError reports a field value that could not be parsed.
// Record holds everything else the block carried, with the bad field zeroed.
type MalformedRecordError struct {
	Field  Tag
	Value  string
	Line   int
	Record models.CommentRecord
	Err    error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s value %q at line %d: %v", e.Field, e.Value, e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

var errNegative = errors.New("must not be negative")

// Parse returns a sequence over the records of one dump. Every iteration
// re-reads text from the start. A malformed block yields a zero record and a
// *MalformedRecordError; iteration continues with the next block. The only
// error that ends the sequence early is a line longer than the scanner allows.
func Parse(text string) iter.Seq2[models.CommentRecord, error] {
	return func(yield func(models.CommentRecord, error) bool) {
		sc := bufio.NewScanner(strings.NewReader(text))
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		var b block
		lineNo := 0
		for sc.Scan() {
			lineNo++
			line := strings.TrimSpace(sc.Text())
			if line == Delimiter {
				if !b.emit(yield) {
					return
				}
				b = block{}
				continue
			}
			b.add(line, lineNo)
		}
		if err := sc.Err(); err != nil {
			yield(models.CommentRecord{}, fmt.Errorf("scan dump at line %d: %w", lineNo+1, err))
			return
		}
		b.emit(yield)
	}
}

type block struct {
	rec       models.CommentRecord
	hasAuthor bool
	textOpen  bool
	bad       *MalformedRecordError
}

func (b *block) add(line string, lineNo int) {
	tag, value := classify(line)
	switch tag {
	case TagAuthor:
		author, display, replyTo, ok := splitAuthor(value)
		if !ok {
			break
		}
		b.rec.Author = author
		b.rec.DisplayName = display
		b.hasAuthor = true
		if replyTo != "" && b.rec.ReplyTo == "" {
			b.rec.ReplyTo = replyTo
			b.rec.Kind = models.KindReply
		}
	case TagComment:
		b.rec.Text = value
	case TagReply:
		b.rec.Kind = models.KindReply
		b.rec.Text = value
	case TagLikes:
		n, err := strconv.Atoi(value)
		if err == nil && n < 0 {
			err = errNegative
		}
		if err != nil {
			b.bad = &MalformedRecordError{Field: TagLikes, Value: value, Line: lineNo, Err: err}
			b.rec.LikeCount = 0
			break
		}
		b.rec.LikeCount = n
	case TagPublishedAt:
		b.rec.PublishedAt = value
	case TagCommentID:
		id, parent := splitCommentID(value)
		b.rec.CommentID = id
		if parent != "" {
			b.rec.ReplyTo = parent
			b.rec.Kind = models.KindReply
		}
	case TagNone:
		// Text that wrapped onto following lines.
		if b.textOpen && line != "" {
			b.rec.Text += " " + line
		}
	}
	if tag != TagNone {
		b.textOpen = tag == TagComment || tag == TagReply
	}
}

func (b *block) emit(yield func(models.CommentRecord, error) bool) bool {
	if !b.hasAuthor {
		return true
	}
	if b.bad != nil {
		b.bad.Record = b.rec
		return yield(models.CommentRecord{}, b.bad)
	}
	return yield(b.rec, nil)
}

// splitAuthor extracts the handle after the first '@' of an Author value.
// Reply authors carry a "(Reply to Comment ID: X)" suffix which is returned
// separately. ok is false when the value has no usable handle.
func splitAuthor(value string) (handle, display, replyTo string, ok bool) {
	at := strings.Index(value, "@")
	if at < 0 {
		return "", "", "", false
	}
	display = strings.TrimSpace(value[:at])
	handle = value[at+1:]
	if i := strings.Index(handle, replyAuthorMarker); i >= 0 {
		replyTo = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(handle[i+len(replyAuthorMarker):]), ")"))
		handle = handle[:i]
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return "", "", "", false
	}
	return handle, display, replyTo, true
}

// splitCommentID splits "id, Reply to ID: parent" into its parts.
func splitCommentID(value string) (id, parent string) {
	i := strings.Index(value, replyIDMarker)
	if i < 0 {
		return value, ""
	}
	id = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value[:i]), ","))
	parent = strings.TrimSpace(value[i+len(replyIDMarker):])
	return id, parent
}
