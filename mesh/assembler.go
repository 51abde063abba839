package mesh

import (
	"errors"
	"fmt"

	"github.com/notargets/odb2vtk/odb"
)

var ErrNothingToConvert = errors.New("nothing to convert")

// NodeIndexMap maps a node label to its dense point index
type NodeIndexMap map[int]int

// ElementIndexMap maps the label of a supported element to its dense cell index
type ElementIndexMap map[int]int

// SectionKey identifies the elements of an instance sharing a section
// category and a raw element type
type SectionKey struct {
	Category    string
	ElementType string
}

func (k SectionKey) String() string { return k.Category + " " + k.ElementType }

type SectionGroup struct {
	Key    SectionKey
	Labels []int // element labels in sequence order
}

// Cells is a flat cell array. Offsets holds the end position of each
// cell in Connectivity.
type Cells struct {
	Types        []CellType
	Connectivity []int
	Offsets      []int
}

func (c *Cells) NumCells() int { return len(c.Types) }

func (c *Cells) appendCell(cellType CellType, points []int) {
	c.Types = append(c.Types, cellType)
	c.Connectivity = append(c.Connectivity, points...)
	c.Offsets = append(c.Offsets, len(c.Connectivity))
}

// BuildPoints lays the nodes out as 3-component points in sequence
// order. Planar and axisymmetric nodes get a zero third component.
func BuildPoints(nodes []odb.Node, dim odb.Dimensionality) (points []float64, nodeMap NodeIndexMap) {
	points = make([]float64, 3*len(nodes))
	nodeMap = make(NodeIndexMap, len(nodes))
	for i, n := range nodes {
		nc := len(n.Coordinates)
		if dim != odb.ThreeD && nc > 2 {
			nc = 2
		}
		if nc > 3 {
			nc = 3
		}
		copy(points[3*i:3*i+nc], n.Coordinates[:nc])
		nodeMap[n.Label] = i
	}
	return
}

// BuildCells translates the supported elements into cells. Unsupported
// elements are returned in skipped and leave no trace in the cell array.
// A connectivity label missing from nodeMap panics.
func BuildCells(catalog ElementCatalog, nodeMap NodeIndexMap, elements []odb.Element,
	instance string) (cells Cells, elementMap ElementIndexMap, groups []*SectionGroup,
	skipped []odb.Element) {
	var (
		groupIndex = make(map[SectionKey]*SectionGroup)
	)
	elementMap = make(ElementIndexMap, len(elements))
	for _, el := range elements {
		entry, ok := catalog.Resolve(el.Type)
		if !ok {
			skipped = append(skipped, el)
			continue
		}
		points := make([]int, len(el.Connectivity))
		for j, label := range el.Connectivity {
			p, found := nodeMap[label]
			if !found {
				panic(fmt.Errorf("instance %s: element %d references node %d which is not in the node map",
					instance, el.Label, label))
			}
			points[j] = p
		}
		elementMap[el.Label] = cells.NumCells()
		cells.appendCell(entry.Cell, points)

		key := SectionKey{Category: el.SectionCategory, ElementType: el.Type}
		g, ok := groupIndex[key]
		if !ok {
			g = &SectionGroup{Key: key}
			groupIndex[key] = g
			groups = append(groups, g)
		}
		g.Labels = append(g.Labels, el.Label)
	}
	return
}

// InstanceMesh is the assembled unstructured mesh of one instance
type InstanceMesh struct {
	Name           string
	Dimensionality odb.Dimensionality
	Points         []float64 // x,y,z per point
	Cells
	NodeIndex    NodeIndexMap
	ElementIndex ElementIndexMap
	Groups       []*SectionGroup
	Skipped      []odb.Element
	instance     *odb.Instance
}

// Assemble builds the mesh of an instance. An instance without any
// resolvable element yields ErrNothingToConvert.
func Assemble(catalog ElementCatalog, inst *odb.Instance) (m *InstanceMesh, err error) {
	if len(catalog.CellTypes(inst.Elements)) == 0 {
		return nil, fmt.Errorf("instance %s: %w", inst.Name, ErrNothingToConvert)
	}
	m = &InstanceMesh{
		Name:           inst.Name,
		Dimensionality: inst.Dimensionality,
		instance:       inst,
	}
	m.Points, m.NodeIndex = BuildPoints(inst.Nodes, inst.Dimensionality)
	m.Cells, m.ElementIndex, m.Groups, m.Skipped = BuildCells(catalog, m.NodeIndex,
		inst.Elements, inst.Name)
	return
}

func (m *InstanceMesh) NumPoints() int { return len(m.Points) / 3 }

// Instance is the source instance the mesh was assembled from
func (m *InstanceMesh) Instance() *odb.Instance { return m.instance }

// ElementSet returns the named region of a section group used to localize
// field queries
func (m *InstanceMesh) ElementSet(g *SectionGroup) *odb.ElementSet {
	return odb.NewElementSet(g.Key.String(), m.instance, g.Labels)
}

func (m *InstanceMesh) PrintStatistics() {
	fmt.Printf("Instance %s (%s):\n", m.Name, m.Dimensionality)
	fmt.Printf("  Points: %d\n", m.NumPoints())
	fmt.Printf("  Cells: %d\n", m.NumCells())
	typeCounts := make(map[CellType]int)
	for _, t := range m.Types {
		typeCounts[t]++
	}
	fmt.Printf("  Cell types:\n")
	for t, count := range typeCounts {
		fmt.Printf("    %s: %d\n", t, count)
	}
	fmt.Printf("  Section groups:\n")
	for _, g := range m.Groups {
		fmt.Printf("    %s: %d\n", g.Key, len(g.Labels))
	}
	if len(m.Skipped) > 0 {
		fmt.Printf("  Unsupported elements: %d\n", len(m.Skipped))
	}
}
