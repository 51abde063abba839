package odb

import (
	"sort"
	"strings"
)

// InstanceSummary describes the element types and section categories of
// an instance
type InstanceSummary struct {
	Name              string
	ElementTypes      []string
	SectionCategories []string
	// Supported is false when composite and non-composite sections are mixed
	Supported bool
	Composite bool
}

// SectionCategoryName classifies a raw section category name
func SectionCategoryName(raw string) string {
	switch {
	case strings.Contains(raw, "shell < composite >"):
		return "Shell composite"
	case strings.Contains(raw, "shell"):
		return "Shell"
	case strings.Contains(raw, "solid < composite >"):
		return "Solid composite"
	case strings.Contains(raw, "solid"):
		return "Solid"
	}
	return "Other"
}

func SummarizeInstance(inst *Instance) (s InstanceSummary) {
	var (
		types      = make(map[string]bool)
		categories = make(map[string]bool)
	)
	for _, el := range inst.Elements {
		types[el.Type] = true
		categories[SectionCategoryName(el.SectionCategory)] = true
	}
	s.Name = inst.Name
	s.ElementTypes = sortedKeys(types)
	s.SectionCategories = sortedKeys(categories)
	var composite, plain bool
	for _, c := range s.SectionCategories {
		if strings.Contains(c, "composite") {
			composite = true
		} else {
			plain = true
		}
	}
	s.Supported = !(composite && plain)
	s.Composite = composite
	return
}

func SummarizeInstances(r Reader) map[string]InstanceSummary {
	summary := make(map[string]InstanceSummary)
	for _, inst := range r.Instances() {
		summary[inst.Name] = SummarizeInstance(inst)
	}
	return summary
}

type FrameSummary struct {
	ID        int
	Increment int
	Value     float64
	Fields    []string
}

type StepSummary struct {
	Name   string
	Frames []FrameSummary
}

// FieldSummary lists every frame and field name available in a set of steps
type FieldSummary struct {
	Steps []StepSummary
}

// SummarizeFields gathers the frames and field names of the named steps.
// A step missing from the database is an error.
func SummarizeFields(r Reader, stepNames []string) (fs FieldSummary, err error) {
	seen := make(map[string]bool)
	for _, name := range stepNames {
		if seen[name] {
			continue
		}
		seen[name] = true
		var step *Step
		if step, err = r.Step(name); err != nil {
			return
		}
		ss := StepSummary{Name: step.Name}
		for _, f := range step.Frames {
			ss.Frames = append(ss.Frames, FrameSummary{
				ID:        f.ID,
				Increment: f.Increment,
				Value:     f.Value,
				Fields:    f.FieldOutputNames(),
			})
		}
		fs.Steps = append(fs.Steps, ss)
	}
	return
}

// AvailableFrames returns the sorted frame ids per step
func (fs FieldSummary) AvailableFrames() map[string][]int {
	frames := make(map[string][]int)
	for _, s := range fs.Steps {
		ids := make([]int, len(s.Frames))
		for i, f := range s.Frames {
			ids[i] = f.ID
		}
		sort.Ints(ids)
		frames[s.Name] = ids
	}
	return frames
}

// AvailableFields returns the field names per step and frame id
func (fs FieldSummary) AvailableFields() map[string]map[int][]string {
	fields := make(map[string]map[int][]string)
	for _, s := range fs.Steps {
		fields[s.Name] = make(map[int][]string)
		for _, f := range s.Frames {
			fields[s.Name][f.ID] = f.Fields
		}
	}
	return fields
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
