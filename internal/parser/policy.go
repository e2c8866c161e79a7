package parser

import (
	"errors"
	"fmt"
	"iter"

	"commentgraph/internal/models"
)

// Policy decides what happens to a block with a malformed field.
type Policy string

const (
	// PolicyDrop skips the block and keeps reading the file.
	PolicyDrop Policy = "drop"
	// PolicyZero keeps the record with the bad field zeroed.
	PolicyZero Policy = "zero"
	// PolicyAbort gives up on the whole file.
	PolicyAbort Policy = "abort"
)

// ParsePolicy validates a policy name. An empty name means PolicyDrop.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case "":
		return PolicyDrop, nil
	case PolicyDrop, PolicyZero, PolicyAbort:
		return p, nil
	default:
		return "", fmt.Errorf("unknown malformed record policy %q (want drop, zero or abort)", s)
	}
}

// Collect drains seq under policy p. It returns the kept records and the
// number of dropped blocks. A non-nil error means the file must be discarded.
func Collect(seq iter.Seq2[models.CommentRecord, error], p Policy) ([]models.CommentRecord, int, error) {
	var (
		records []models.CommentRecord
		dropped int
	)
	for rec, err := range seq {
		if err == nil {
			records = append(records, rec)
			continue
		}

		var malformed *MalformedRecordError
		if !errors.As(err, &malformed) {
			return records, dropped, err
		}
		switch p {
		case PolicyZero:
			records = append(records, malformed.Record)
		case PolicyAbort:
			return records, dropped, err
		default:
			dropped++
		}
	}
	return records, dropped, nil
}
