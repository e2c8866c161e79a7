package detector

import (
	"commentgraph/internal/graph"
	"commentgraph/internal/models"
)

// Finding is one threshold crossing. Author is empty for bot-like findings;
// Count is the distinct author count or the repeat count respectively.
type Finding struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
	Count  int    `json:"count"`
}

// Report aggregates detections at comment-text granularity: a text counts
// once no matter how many authors or edges it flags.
type Report struct {
	TotalBotLike int `json:"total_bot_like_comments"`
	TotalSpam    int `json:"total_spam_comments"`
}

// Result holds the flags computed for one aggregate. It implements
// graph.Flagger.
type Result struct {
	BotLike []Finding
	Spam    []Finding
	Report  Report

	agg        *graph.Aggregate
	thresholds Thresholds
	comments   map[string]models.Behavior
	commenters map[string]models.Behavior
}

var _ graph.Flagger = (*Result)(nil)

// CommenterBehavior returns the union of flags over everything author posted.
func (r *Result) CommenterBehavior(author string) models.Behavior {
	return r.commenters[author]
}

// CommentBehavior returns the flags of text.
func (r *Result) CommentBehavior(text string) models.Behavior {
	return r.comments[text]
}

// PairFlagged reports whether text is bot-like or author repeated it past
// the spam threshold.
func (r *Result) PairFlagged(author, text string) bool {
	if r.comments[text].Has(models.BehaviorBotLike) {
		return true
	}
	return r.thresholds.Comparison.Exceeds(r.agg.Count(author, text), r.thresholds.Spam)
}

// Flagged lists every flagged commenter followed by every flagged comment,
// each group in sorted order.
func (r *Result) Flagged() []models.FlaggedEntity {
	var out []models.FlaggedEntity
	for _, author := range r.agg.Authors() {
		if b := r.commenters[author]; b != 0 {
			out = append(out, models.FlaggedEntity{Entity: author, EntityType: models.NodeCommenter, Behavior: b.String()})
		}
	}
	for _, text := range r.agg.Texts() {
		if b := r.comments[text]; b != 0 {
			out = append(out, models.FlaggedEntity{Entity: text, EntityType: models.NodeComment, Behavior: b.String()})
		}
	}
	return out
}
