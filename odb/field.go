package odb

import (
	"math"
)

type SectionPoint struct {
	Number      int // 0 when the value is not layered
	Description string
}

// FieldValue is a single sample of a field output
type FieldValue struct {
	Instance         string
	ElementLabel     int // 0 for values not attached to an element
	NodeLabel        int // 0 for values not attached to a node
	IntegrationPoint int
	Position         Position
	SectionPoint     SectionPoint
	Precision        Precision
	Data             []float64 // one entry per component
}

type FieldLocation struct {
	Position      Position
	SectionPoints []SectionPoint
}

// Geometry gives field outputs access to the element connectivity they
// need when re-expressing integration point data at nodes
type Geometry interface {
	Element(instance string, label int) (*Element, bool)
}

// FieldOutput is a named physical quantity sampled for one frame. Every
// subset operation returns a new FieldOutput sharing the value storage.
type FieldOutput struct {
	Name            string
	Description     string
	Type            DataType
	ComponentLabels []string
	Values          []FieldValue
	geometry        Geometry
}

func NewFieldOutput(name, description string, dataType DataType, geometry Geometry) *FieldOutput {
	return &FieldOutput{
		Name:        name,
		Description: description,
		Type:        dataType,
		geometry:    geometry,
	}
}

func (fo *FieldOutput) derive(values []FieldValue) *FieldOutput {
	return &FieldOutput{
		Name:            fo.Name,
		Description:     fo.Description,
		Type:            fo.Type,
		ComponentLabels: fo.ComponentLabels,
		Values:          values,
		geometry:        fo.geometry,
	}
}

func (fo *FieldOutput) filter(keep func(v *FieldValue) bool) *FieldOutput {
	values := make([]FieldValue, 0, len(fo.Values))
	for i := range fo.Values {
		if keep(&fo.Values[i]) {
			values = append(values, fo.Values[i])
		}
	}
	return fo.derive(values)
}

// SubsetInstance restricts the field to the values of one instance
func (fo *FieldOutput) SubsetInstance(name string) *FieldOutput {
	return fo.filter(func(v *FieldValue) bool { return v.Instance == name })
}

// SubsetRegion restricts the field to an element set. Nodal values are
// kept when their node belongs to one of the set's elements.
func (fo *FieldOutput) SubsetRegion(set *ElementSet) *FieldOutput {
	return fo.filter(func(v *FieldValue) bool {
		if v.Instance != set.Instance {
			return false
		}
		if v.ElementLabel != 0 {
			return set.HasElement(v.ElementLabel)
		}
		return set.HasNode(v.NodeLabel)
	})
}

// SubsetPosition restricts the field to one sample position. Asking for
// ElementNodal values of integration point data extrapolates them to the
// element nodes.
func (fo *FieldOutput) SubsetPosition(position Position) *FieldOutput {
	if position == ElementNodal {
		var hasIP bool
		for i := range fo.Values {
			if fo.Values[i].Position == IntegrationPoint {
				hasIP = true
				break
			}
		}
		if hasIP {
			return fo.extrapolate()
		}
	}
	return fo.filter(func(v *FieldValue) bool { return v.Position == position })
}

// SubsetSectionPoint restricts the field to a single stacking layer
func (fo *FieldOutput) SubsetSectionPoint(sp SectionPoint) *FieldOutput {
	return fo.filter(func(v *FieldValue) bool { return v.SectionPoint.Number == sp.Number })
}

// Abs returns the field with the absolute value of every component
func (fo *FieldOutput) Abs() *FieldOutput {
	values := make([]FieldValue, len(fo.Values))
	for i, v := range fo.Values {
		data := make([]float64, len(v.Data))
		for j, d := range v.Data {
			data[j] = math.Abs(d)
		}
		v.Data = data
		values[i] = v
	}
	return fo.derive(values)
}

// Locations lists the positions present in the field in enumeration
// order, each with the section points recorded at that position
func (fo *FieldOutput) Locations() (locations []FieldLocation) {
	var (
		index = make(map[Position]int)
		seen  = make(map[Position]map[int]bool)
	)
	for _, v := range fo.Values {
		i, ok := index[v.Position]
		if !ok {
			i = len(locations)
			index[v.Position] = i
			seen[v.Position] = make(map[int]bool)
			locations = append(locations, FieldLocation{Position: v.Position})
		}
		if v.SectionPoint.Number != 0 && !seen[v.Position][v.SectionPoint.Number] {
			seen[v.Position][v.SectionPoint.Number] = true
			locations[i].SectionPoints = append(locations[i].SectionPoints, v.SectionPoint)
		}
	}
	return
}

// Block is a homogeneous run of raw samples: same instance, position,
// section point, width and precision
type Block struct {
	Instance          string
	Position          Position
	SectionPoint      SectionPoint
	Width             int
	Precision         Precision
	ElementLabels     []int
	NodeLabels        []int
	IntegrationPoints []int
	data32            []float32
	data64            []float64
}

func (b *Block) Len() int { return len(b.ElementLabels) }

// Data is the single precision storage, nil for double precision blocks
func (b *Block) Data() []float32 { return b.data32 }

// DataDouble is the double precision storage, nil for single precision blocks
func (b *Block) DataDouble() []float64 { return b.data64 }

// At returns component j of sample i regardless of the storage precision
func (b *Block) At(i, j int) float64 {
	if b.Precision == DoublePrecision {
		return b.data64[i*b.Width+j]
	}
	return float64(b.data32[i*b.Width+j])
}

type blockKey struct {
	instance     string
	position     Position
	sectionPoint int
	width        int
	precision    Precision
}

// BulkDataBlocks groups the values into blocks in first-appearance order
func (fo *FieldOutput) BulkDataBlocks() (blocks []*Block) {
	index := make(map[blockKey]*Block)
	for _, v := range fo.Values {
		key := blockKey{v.Instance, v.Position, v.SectionPoint.Number, len(v.Data), v.Precision}
		b, ok := index[key]
		if !ok {
			b = &Block{
				Instance:     v.Instance,
				Position:     v.Position,
				SectionPoint: v.SectionPoint,
				Width:        len(v.Data),
				Precision:    v.Precision,
			}
			index[key] = b
			blocks = append(blocks, b)
		}
		b.ElementLabels = append(b.ElementLabels, v.ElementLabel)
		b.NodeLabels = append(b.NodeLabels, v.NodeLabel)
		b.IntegrationPoints = append(b.IntegrationPoints, v.IntegrationPoint)
		for _, d := range v.Data {
			if b.Precision == DoublePrecision {
				b.data64 = append(b.data64, d)
			} else {
				b.data32 = append(b.data32, float32(d))
			}
		}
	}
	return
}

// ElementSet is a named group of elements of one instance used to
// localize field queries
type ElementSet struct {
	Name     string
	Instance string
	elements map[int]struct{}
	nodes    map[int]struct{}
}

func NewElementSet(name string, inst *Instance, labels []int) *ElementSet {
	set := &ElementSet{
		Name:     name,
		Instance: inst.Name,
		elements: make(map[int]struct{}, len(labels)),
		nodes:    make(map[int]struct{}),
	}
	for _, l := range labels {
		set.elements[l] = struct{}{}
	}
	for _, el := range inst.Elements {
		if _, ok := set.elements[el.Label]; !ok {
			continue
		}
		for _, n := range el.Connectivity {
			set.nodes[n] = struct{}{}
		}
	}
	return set
}

func (s *ElementSet) HasElement(label int) bool {
	_, ok := s.elements[label]
	return ok
}

func (s *ElementSet) HasNode(label int) bool {
	_, ok := s.nodes[label]
	return ok
}

func (s *ElementSet) Len() int { return len(s.elements) }
