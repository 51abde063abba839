package converter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/notargets/odb2vtk/InputParameters"
)

var (
	ErrNoMatchingFrames = errors.New("no matching frames")
	ErrNoMatchingFields = errors.New("no matching fields")
)

// IntersectSorted returns the ascending intersection of two ascending lists
func IntersectSorted(a, b []int) (c []int) {
	var i, j int
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			c = append(c, a[i])
			i++
			j++
		}
	}
	return
}

type StepMatch struct {
	Step   string
	Frames []int            // ascending
	Fields map[int][]string // matched field names per frame
}

type MatchResult struct {
	Steps []StepMatch
}

// NumFrames is the total number of frames to convert
func (mr MatchResult) NumFrames() (n int) {
	for _, s := range mr.Steps {
		n += len(s.Frames)
	}
	return
}

// Match intersects the requested frames of every step with the available
// ones and selects, per matched frame, the available field names fully
// matching a requested pattern. Names are listed pattern by pattern in
// availability order; with dedupe a name is only listed once per frame.
// A step without matched frames, or a matched frame without matched
// fields, fails the whole match.
func Match(frames map[string][]int, fields map[string]map[int][]string,
	req *InputParameters.OutputRequest, dedupe bool) (mr MatchResult, err error) {
	patterns := req.Patterns()
	for _, fr := range req.Frames {
		requested := append([]int(nil), fr.List...)
		sort.Ints(requested)
		sm := StepMatch{
			Step:   fr.Step,
			Frames: IntersectSorted(requested, frames[fr.Step]),
			Fields: make(map[int][]string),
		}
		if len(sm.Frames) == 0 {
			return MatchResult{}, fmt.Errorf("step %s: %w", fr.Step, ErrNoMatchingFrames)
		}
		for _, frame := range sm.Frames {
			var (
				names []string
				seen  = make(map[string]bool)
			)
			for _, re := range patterns {
				for _, name := range fields[fr.Step][frame] {
					if !re.MatchString(name) {
						continue
					}
					if dedupe && seen[name] {
						continue
					}
					seen[name] = true
					names = append(names, name)
				}
			}
			if len(names) == 0 {
				return MatchResult{}, fmt.Errorf("step %s frame %d: %w", fr.Step, frame, ErrNoMatchingFields)
			}
			sm.Fields[frame] = names
		}
		mr.Steps = append(mr.Steps, sm)
	}
	return
}
