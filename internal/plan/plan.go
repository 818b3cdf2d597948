// Package plan builds and validates the dependency-ordered execution plan
// for a generation run.
//
// Execution order is a fixed layer concatenation (stores → queries → hooks →
// middleware → routers → provider/root), not a general topological search:
// cross-layer back-references never occur by construction, and the
// provider/root task is always present and always last.
package plan

import (
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/appforge/internal/task"
)

// Plan is an immutable ordered sequence of generation tasks. The plan owns
// its task sequence; observers get copies and the executor never mutates it.
type Plan struct {
	tasks []task.Task
}

// Tasks returns a copy of the ordered task sequence.
func (p *Plan) Tasks() []task.Task {
	out := make([]task.Task, len(p.tasks))
	copy(out, p.tasks)
	return out
}

// Len returns the number of tasks in the plan.
func (p *Plan) Len() int {
	return len(p.tasks)
}

// Root returns the provider/root task, which is always last.
func (p *Plan) Root() task.Task {
	return p.tasks[len(p.tasks)-1]
}

// Fingerprint computes the blake3 hash of the plan's canonical JSON shape.
// Two runs over the same configuration produce the same fingerprint.
func (p *Plan) Fingerprint() string {
	type entry struct {
		ID        string   `json:"id"`
		Type      string   `json:"type"`
		DependsOn []string `json:"depends_on,omitempty"`
		Output    string   `json:"output"`
	}

	entries := make([]entry, len(p.tasks))
	for i, t := range p.tasks {
		entries[i] = entry{
			ID:        t.ID,
			Type:      string(t.Type),
			DependsOn: t.DependsOn,
			Output:    t.OutputFile,
		}
	}

	canonical, err := json.Marshal(entries)
	if err != nil {
		// Marshal of plain structs cannot fail; keep the signature simple.
		return ""
	}

	sum := blake3.Sum256(canonical)
	return fmt.Sprintf("%x", sum)
}
