package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"commentgraph/internal/models"
	"commentgraph/internal/parser"
)

// DefaultExtension is the suffix of dump files written by the comment scraper.
const DefaultExtension = ".txt"

// IOError describes a dump file that was skipped because it could not be
// read or its parse was aborted.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("skip %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Corpus is the set of video dumps loaded for one run.
type Corpus struct {
	Videos         []models.VideoDump
	Skipped        []*IOError
	RecordsDropped int
}

// RecordCount returns the number of records across all videos.
func (c *Corpus) RecordCount() int {
	n := 0
	for _, v := range c.Videos {
		n += len(v.Records)
	}
	return n
}

// Options controls which files are read and how malformed blocks are handled.
type Options struct {
	Extension   string
	LikesPolicy parser.Policy
}

// Loader reads per-video dump files from a directory.
type Loader struct {
	opts   Options
	logger *zap.Logger
}

// NewLoader creates a new Loader instance.
func NewLoader(opts Options, logger *zap.Logger) *Loader {
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if opts.LikesPolicy == "" {
		opts.LikesPolicy = parser.PolicyDrop
	}
	return &Loader{opts: opts, logger: logger}
}

// Load parses at most maxVideos dump files from dir, in file name order.
// Files that cannot be read or whose parse is aborted are recorded in
// Corpus.Skipped and do not count toward maxVideos. A missing or empty
// directory yields an empty corpus.
func (l *Loader) Load(dir string, maxVideos int) *Corpus {
	c := &Corpus{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Input directory does not exist", zap.String("dir", dir))
		} else {
			l.logger.Error("Failed to list input directory", zap.String("dir", dir), zap.Error(err))
		}
		return c
	}

	for _, entry := range entries {
		if len(c.Videos) >= maxVideos {
			break
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), l.opts.Extension) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		dump, dropped, err := l.loadFile(path)
		if err != nil {
			ioErr := &IOError{Path: path, Err: err}
			c.Skipped = append(c.Skipped, ioErr)
			l.logger.Warn("Skipping dump file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		c.Videos = append(c.Videos, dump)
		c.RecordsDropped += dropped
		l.logger.Info("Processed file",
			zap.String("file", entry.Name()),
			zap.Int("processed", len(c.Videos)),
			zap.Int("max", maxVideos),
			zap.Int("records", len(dump.Records)),
			zap.Int("dropped", dropped))
	}

	l.logger.Info("Corpus loaded",
		zap.String("dir", dir),
		zap.Int("videos", len(c.Videos)),
		zap.Int("records", c.RecordCount()),
		zap.Int("skipped_files", len(c.Skipped)),
		zap.Int("dropped_records", c.RecordsDropped))

	return c
}

func (l *Loader) loadFile(path string) (models.VideoDump, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.VideoDump{}, 0, err
	}

	videoID := VideoID(path)
	records, dropped, err := parser.Collect(parser.Parse(string(data)), l.opts.LikesPolicy)
	if err != nil {
		return models.VideoDump{}, dropped, err
	}
	for i := range records {
		records[i].VideoID = videoID
	}
	return models.VideoDump{VideoID: videoID, Records: records}, dropped, nil
}

// VideoID derives a video identifier from a dump file path: the base name
// without its extension.
func VideoID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
