package models

import "time"

// Run represents one pipeline execution stored in the 'runs' table.
type Run struct {
	ID              string     `json:"id" db:"id"`
	InputDir        string     `json:"input_dir" db:"input_dir"`
	MaxVideos       int        `json:"max_videos" db:"max_videos"`
	BotThreshold    int        `json:"bot_threshold" db:"bot_threshold"`
	SpamThreshold   int        `json:"spam_threshold" db:"spam_threshold"`
	Comparison      string     `json:"comparison" db:"comparison"`
	VideosProcessed int        `json:"videos_processed" db:"videos_processed"`
	FilesSkipped    int        `json:"files_skipped" db:"files_skipped"`
	RecordsDropped  int        `json:"records_dropped" db:"records_dropped"`
	TotalBotLike    int        `json:"total_bot_like" db:"total_bot_like"`
	TotalSpam       int        `json:"total_spam" db:"total_spam"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// Files written by the run; not persisted.
	Outputs []string `json:"outputs,omitempty" db:"-"`
}

// FlaggedEntity is a commenter or comment that crossed a behavior threshold
// during a run.
type FlaggedEntity struct {
	RunID      string   `json:"run_id" db:"run_id"`
	Entity     string   `json:"entity" db:"entity"`
	EntityType NodeType `json:"entity_type" db:"entity_type"`
	Behavior   string   `json:"behavior" db:"behavior"`
}

// AnalyzeRequest overrides the configured run parameters. Omitted fields
// keep their configured values.
type AnalyzeRequest struct {
	InputDir      string `json:"input_dir"`
	MaxVideos     *int   `json:"max_videos"`
	BotThreshold  *int   `json:"bot_threshold"`
	SpamThreshold *int   `json:"spam_threshold"`
	FlaggedOnly   *bool  `json:"flagged_only"`
}
