package odb

import (
	"fmt"
)

// Database is an analysis result database held fully in memory. It is
// filled either by Open or through the Add* builders.
type Database struct {
	name      string
	path      string
	size      int64
	instances []*Instance
	steps     []*Step
	elements  map[string]map[int]*Element
}

func NewDatabase(name string) *Database {
	return &Database{
		name:     name,
		elements: make(map[string]map[int]*Element),
	}
}

func (db *Database) Name() string { return db.name }
func (db *Database) Path() string { return db.path }
func (db *Database) Size() int64  { return db.size }

func (db *Database) Instances() []*Instance { return db.instances }
func (db *Database) Steps() []*Step         { return db.steps }

func (db *Database) Instance(name string) (*Instance, error) {
	for _, inst := range db.instances {
		if inst.Name == name {
			return inst, nil
		}
	}
	return nil, fmt.Errorf("instance %s: %w", name, ErrNotFound)
}

func (db *Database) Step(name string) (*Step, error) {
	for _, s := range db.steps {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("step %s: %w", name, ErrNotFound)
}

// Element implements Geometry
func (db *Database) Element(instance string, label int) (el *Element, ok bool) {
	var elements map[int]*Element
	if elements, ok = db.elements[instance]; !ok {
		return
	}
	el, ok = elements[label]
	return
}

// AddInstance registers a complete instance; its element slice must not
// be reallocated afterwards
func (db *Database) AddInstance(inst *Instance) *Instance {
	db.instances = append(db.instances, inst)
	elements := make(map[int]*Element, len(inst.Elements))
	for i := range inst.Elements {
		elements[inst.Elements[i].Label] = &inst.Elements[i]
	}
	db.elements[inst.Name] = elements
	return inst
}

func (db *Database) AddStep(name, description string) *Step {
	s := &Step{Name: name, Description: description}
	db.steps = append(db.steps, s)
	return s
}

func (db *Database) AddFrame(step *Step, id, increment int, value float64, description string) *Frame {
	f := &Frame{ID: id, Increment: increment, Value: value, Description: description}
	step.Frames = append(step.Frames, f)
	return f
}

// AddFieldOutput creates an empty field output bound to this database's
// geometry and appends it to the frame
func (db *Database) AddFieldOutput(frame *Frame, name, description string, dataType DataType,
	componentLabels ...string) *FieldOutput {
	fo := NewFieldOutput(name, description, dataType, db)
	fo.ComponentLabels = componentLabels
	frame.Fields = append(frame.Fields, fo)
	return fo
}

func (fo *FieldOutput) AddValue(v FieldValue) {
	fo.Values = append(fo.Values, v)
}
