// Package detector flags comments and commenters whose posting pattern looks
// automated.
//
// A text is bot-like when too many distinct authors posted it verbatim. A
// text is spam when a single author posted it too many times. Commenters
// inherit the flags of the texts they posted.
package detector

import (
	"fmt"

	"go.uber.org/zap"

	"commentgraph/internal/graph"
	"commentgraph/internal/models"
)

// Comparison selects how a count is compared with its threshold.
type Comparison string

const (
	GreaterThan    Comparison = "gt"
	GreaterOrEqual Comparison = "gte"
)

// Exceeds reports whether count crosses threshold.
func (c Comparison) Exceeds(count, threshold int) bool {
	if c == GreaterOrEqual {
		return count >= threshold
	}
	return count > threshold
}

const (
	DefaultBotThreshold  = 5
	DefaultSpamThreshold = 5
)

// Thresholds configures the detector.
type Thresholds struct {
	Bot        int        `yaml:"bot_threshold" json:"bot_threshold"`
	Spam       int        `yaml:"spam_threshold" json:"spam_threshold"`
	Comparison Comparison `yaml:"comparison" json:"comparison"`
}

// DefaultThresholds returns T_bot = 5, T_spam = 5 with strict comparison.
func DefaultThresholds() Thresholds {
	return Thresholds{Bot: DefaultBotThreshold, Spam: DefaultSpamThreshold, Comparison: GreaterThan}
}

// Validate checks that both thresholds are at least 1 and the comparison is known.
func (t Thresholds) Validate() error {
	if t.Bot < 1 {
		return fmt.Errorf("bot threshold must be >= 1, got %d", t.Bot)
	}
	if t.Spam < 1 {
		return fmt.Errorf("spam threshold must be >= 1, got %d", t.Spam)
	}
	switch t.Comparison {
	case GreaterThan, GreaterOrEqual:
	default:
		return fmt.Errorf("unknown comparison %q (want gt or gte)", t.Comparison)
	}
	return nil
}

// Detector classifies comment aggregates against fixed thresholds.
type Detector struct {
	thresholds Thresholds
	logger     *zap.Logger
}

// New creates a Detector. An empty comparison defaults to GreaterThan.
func New(t Thresholds, logger *zap.Logger) (*Detector, error) {
	if t.Comparison == "" {
		t.Comparison = GreaterThan
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Detector{thresholds: t, logger: logger}, nil
}

// Thresholds returns the thresholds in effect.
func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// Detect flags the texts and authors of agg.
func (d *Detector) Detect(agg *graph.Aggregate) *Result {
	res := &Result{
		agg:        agg,
		thresholds: d.thresholds,
		comments:   make(map[string]models.Behavior),
		commenters: make(map[string]models.Behavior),
	}

	d.logger.Debug("Checking for bot-like behavior...")
	for _, text := range agg.Texts() {
		n := agg.DistinctAuthors(text)
		if !d.thresholds.Comparison.Exceeds(n, d.thresholds.Bot) {
			continue
		}
		res.comments[text] |= models.BehaviorBotLike
		for _, author := range agg.AuthorsOf(text) {
			res.commenters[author] |= models.BehaviorBotLike
		}
		res.BotLike = append(res.BotLike, Finding{Text: text, Count: n})
		d.logger.Info("Bot-like behavior detected",
			zap.String("comment", text),
			zap.Int("authors", n))
	}

	d.logger.Debug("Checking for spam comments...")
	for _, author := range agg.Authors() {
		for _, text := range agg.TextsOf(author) {
			n := agg.Count(author, text)
			if !d.thresholds.Comparison.Exceeds(n, d.thresholds.Spam) {
				continue
			}
			res.comments[text] |= models.BehaviorSpam
			res.commenters[author] |= models.BehaviorSpam
			res.Spam = append(res.Spam, Finding{Text: text, Author: author, Count: n})
			d.logger.Info("Spam comment detected",
				zap.String("comment", text),
				zap.String("author", author),
				zap.Int("times", n))
		}
	}

	res.Report = Report{TotalBotLike: len(res.BotLike)}
	for _, b := range res.comments {
		if b.Has(models.BehaviorSpam) {
			res.Report.TotalSpam++
		}
	}

	d.logger.Info("Detected behaviors",
		zap.Int("total_bot_like_comments", res.Report.TotalBotLike),
		zap.Int("total_spam_comments", res.Report.TotalSpam))
	return res
}
