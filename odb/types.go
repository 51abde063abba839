package odb

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNotFound = errors.New("not found")
	ErrNotODB   = errors.New("file is not an ODB file")
)

// Dimensionality is the embedded space of an instance
type Dimensionality uint8

const (
	ThreeD Dimensionality = iota
	TwoDPlanar
	Axisymmetric
)

func (d Dimensionality) String() string {
	switch d {
	case ThreeD:
		return "3D"
	case TwoDPlanar:
		return "2D Planar"
	case Axisymmetric:
		return "Axisymmetric"
	}
	return fmt.Sprintf("Dimensionality(%d)", uint8(d))
}

// Position is where a field value is recorded
type Position uint8

const (
	UndefinedPosition Position = iota
	Nodal
	ElementNodal
	IntegrationPoint
	Centroid
	ElementFace
	WholeElement
	WholeRegion
)

func (p Position) String() string {
	if int(p) < len(positionNames) {
		return positionNames[p]
	}
	return fmt.Sprintf("Position(%d)", uint8(p))
}

var positionNames = [...]string{
	"Undefined", "Nodal", "Element Nodal", "Integration Point", "Centroid",
	"Element Face", "Whole Element", "Whole Region",
}

// DataType is the kind of a field output
type DataType uint8

const (
	UnknownDataType DataType = iota
	Scalar
	Vector
	Tensor3DFull
	Tensor3DPlanar
	Tensor2DPlanar
)

func (t DataType) String() string {
	return [...]string{"Unknown", "Scalar", "Vector", "Tensor 3D Full",
		"Tensor 3D Planar", "Tensor 2D Planar"}[t]
}

func (t DataType) IsTensor() bool {
	return t == Tensor3DFull || t == Tensor3DPlanar || t == Tensor2DPlanar
}

// Precision is the floating point width of a stored field value
type Precision uint8

const (
	SinglePrecision Precision = iota
	DoublePrecision
)

func (p Precision) String() string {
	if p == DoublePrecision {
		return "Double"
	}
	return "Single"
}

type Node struct {
	Label       int
	Coordinates []float64 // 2 or 3 components depending on the instance
}

type Element struct {
	Label           int
	Type            string // e.g. "C3D8R"
	SectionCategory string // raw category name, e.g. "solid < STEEL >"
	Connectivity    []int  // node labels
}

// Instance is a named mesh region of the assembly
type Instance struct {
	Name           string
	Dimensionality Dimensionality
	Nodes          []Node
	Elements       []Element
}

// Element returns the element with the given label
func (inst *Instance) Element(label int) (el *Element, ok bool) {
	for i := range inst.Elements {
		if inst.Elements[i].Label == label {
			return &inst.Elements[i], true
		}
	}
	return
}

type Step struct {
	Name        string
	Description string
	Frames      []*Frame
}

// Frame returns the frame with the given id
func (s *Step) Frame(id int) (*Frame, error) {
	for _, f := range s.Frames {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, fmt.Errorf("frame %d of step %s: %w", id, s.Name, ErrNotFound)
}

// FrameIDs returns the ids of all frames of the step in ascending order
func (s *Step) FrameIDs() (ids []int) {
	ids = make([]int, len(s.Frames))
	for i, f := range s.Frames {
		ids[i] = f.ID
	}
	sort.Ints(ids)
	return
}

type Frame struct {
	ID          int
	Increment   int
	Value       float64
	Description string
	Fields      []*FieldOutput
}

// FieldOutputNames returns the field names in repository order
func (f *Frame) FieldOutputNames() (names []string) {
	names = make([]string, len(f.Fields))
	for i, fo := range f.Fields {
		names[i] = fo.Name
	}
	return
}

func (f *Frame) FieldOutput(name string) (*FieldOutput, error) {
	for _, fo := range f.Fields {
		if fo.Name == name {
			return fo, nil
		}
	}
	return nil, fmt.Errorf("field output %s in frame %d: %w", name, f.ID, ErrNotFound)
}

// Reader is the view of an analysis database consumed by the converter
type Reader interface {
	Name() string
	Path() string
	Instances() []*Instance
	Instance(name string) (*Instance, error)
	Steps() []*Step
	Step(name string) (*Step, error)
}
