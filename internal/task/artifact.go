package task

import (
	"fmt"

	"github.com/zeebo/blake3"
)

// Artifact is the extracted source text produced for one task.
type Artifact struct {
	TaskID   string `json:"task_id"`
	Filename string `json:"filename"`
	Source   string `json:"source"`

	// LowConfidence is set when no fenced code block was found in the
	// backend reply and the raw text was used verbatim. A quality flag,
	// not an error.
	LowConfidence bool `json:"low_confidence,omitempty"`

	// Digest is the blake3 hash of Source, hex encoded.
	Digest string `json:"digest"`
}

// NewArtifact builds an Artifact for a task, computing the source digest.
func NewArtifact(t Task, source string, lowConfidence bool) Artifact {
	return Artifact{
		TaskID:        t.ID,
		Filename:      t.OutputFile,
		Source:        source,
		LowConfidence: lowConfidence,
		Digest:        Digest(source),
	}
}

// Digest computes the blake3 hash of source, hex encoded.
func Digest(source string) string {
	sum := blake3.Sum256([]byte(source))
	return fmt.Sprintf("%x", sum)
}
