package recorder

import (
	"maps"

	"stepviz/pkg/analyzer"
)

// AccessMeta records how a container was read through several iterators during
// the current iteration
type AccessMeta struct {
	Kind       analyzer.AccessKind `json:"kind"`
	Indices    map[string]int      `json:"indices,omitempty"`
	Start      string              `json:"start,omitempty"`
	End        string              `json:"end,omitempty"`
	StartIndex int                 `json:"start_index"`
	EndIndex   int                 `json:"end_index"`
	Line       int                 `json:"line"`
}

// IterationContext tracks one active for loop
type IterationContext struct {
	Container string                `json:"container"`
	Iterator  string                `json:"iterator"`
	Index     int                   `json:"index"`
	Level     int                   `json:"level"`
	Line      int                   `json:"line"`
	Pattern   analyzer.Pattern      `json:"pattern,omitempty"`
	Length    int                   `json:"length"`
	Value     string                `json:"value,omitempty"`
	Accesses  map[string]AccessMeta `json:"accesses,omitempty"`
}

func (c *IterationContext) clone() IterationContext {
	out := *c
	if c.Accesses != nil {
		out.Accesses = make(map[string]AccessMeta, len(c.Accesses))
		for k, v := range c.Accesses {
			v.Indices = maps.Clone(v.Indices)
			out.Accesses[k] = v
		}
	}
	return out
}
