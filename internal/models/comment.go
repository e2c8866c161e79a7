package models

import "fmt"

// Kind distinguishes top-level comments from replies.
type Kind int

const (
	KindComment Kind = iota
	KindReply
)

func (k Kind) String() string {
	switch k {
	case KindReply:
		return "reply"
	default:
		return "comment"
	}
}

// MarshalText writes the kind as "comment" or "reply".
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts "comment" or "reply".
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "comment":
		*k = KindComment
	case "reply":
		*k = KindReply
	default:
		return fmt.Errorf("unknown comment kind %q", string(b))
	}
	return nil
}

// CommentRecord represents one comment or reply parsed from a video dump.
type CommentRecord struct {
	Author      string `json:"author"`                 // handle after the '@'
	DisplayName string `json:"display_name,omitempty"` // text before the '@', may be empty
	Kind        Kind   `json:"kind"`
	Text        string `json:"text"`
	LikeCount   int    `json:"like_count"`
	PublishedAt string `json:"published_at"` // kept verbatim
	CommentID   string `json:"comment_id"`
	ReplyTo     string `json:"reply_to,omitempty"` // parent comment ID, replies only
	VideoID     string `json:"video_id"`
}

// IsReply reports whether the record is a reply to another comment.
func (r CommentRecord) IsReply() bool {
	return r.Kind == KindReply
}

// VideoDump holds every record read from one dump file.
type VideoDump struct {
	VideoID string          `json:"video_id"`
	Records []CommentRecord `json:"records"`
}

// Authors returns the distinct authors of the dump in first-seen order.
func (v VideoDump) Authors() []string {
	seen := make(map[string]struct{}, len(v.Records))
	authors := make([]string, 0, len(v.Records))
	for _, r := range v.Records {
		if r.Author == "" {
			continue
		}
		if _, ok := seen[r.Author]; ok {
			continue
		}
		seen[r.Author] = struct{}{}
		authors = append(authors, r.Author)
	}
	return authors
}
