package stats

import (
	"encoding/json"
	"io"

	"github.com/coregap/pmaxsat/formula"
)

// Snapshot is the `--json-stats` document (§6.3): the shape of the
// formula solved, the final bound history, and the terminal status
// string (matching the `s` line the CLI prints, §6.4).
type Snapshot struct {
	Status        string  `json:"status"`
	LB            int     `json:"lb"`
	UB            int     `json:"ub"`
	NHard         int     `json:"n_hard"`
	NSoft         int     `json:"n_soft"`
	NPartitions   int     `json:"n_partitions"`
	SumSoftWeight int     `json:"sum_soft_weight"`
	ProblemType   string  `json:"problem_type"`
	LBHistory     []int   `json:"lb_history"`
	UBHistory     []int   `json:"ub_history"`
	Samples       []Sample `json:"samples"`
}

// BuildSnapshot assembles a Snapshot from a formula's static shape, the
// recorded bound history, and the terminal status string.
func BuildSnapshot(f *formula.Formula, c *Counters, status string) Snapshot {
	fs := f.Stats()
	return Snapshot{
		Status:        status,
		LB:            c.LastLB(),
		UB:            c.LastUB(),
		NHard:         fs.NHard,
		NSoft:         fs.NSoft,
		NPartitions:   fs.NPartitions,
		SumSoftWeight: fs.SumSoftWeight,
		ProblemType:   fs.ProblemType.String(),
		LBHistory:     c.LBHistory(),
		UBHistory:     c.UBHistory(),
		Samples:       c.Samples(),
	}
}

// WriteJSON marshals snap to w, indented for human readability — the
// same convention the CLI uses for its other diagnostic output.
func WriteJSON(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
