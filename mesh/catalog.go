package mesh

import (
	"sort"
	"strings"

	"github.com/notargets/odb2vtk/odb"
)

type CatalogEntry struct {
	Tag  string // base element type, e.g. "C3D8"
	Cell CellType
}

// ElementCatalog maps element type tags to cell topologies. A catalog is
// immutable once built and safe for concurrent use.
type ElementCatalog struct {
	entries []CatalogEntry
}

func NewElementCatalog(entries ...CatalogEntry) ElementCatalog {
	return ElementCatalog{entries: append([]CatalogEntry(nil), entries...)}
}

// DefaultCatalog is the standard element table
func DefaultCatalog() ElementCatalog {
	return NewElementCatalog(
		// Plane strain
		CatalogEntry{"CPE3", Triangle},
		CatalogEntry{"CPE4", Quad},
		CatalogEntry{"CPE6", QuadraticTriangle},
		CatalogEntry{"CPE8", QuadraticQuad},
		// Plane stress
		CatalogEntry{"CPS3", Triangle},
		CatalogEntry{"CPS4", Quad},
		CatalogEntry{"CPS6", QuadraticTriangle},
		CatalogEntry{"CPS8", QuadraticQuad},
		// Generalized plane strain
		CatalogEntry{"CPEG3", Triangle},
		CatalogEntry{"CPEG4", Quad},
		CatalogEntry{"CPEG6", QuadraticTriangle},
		CatalogEntry{"CPEG8", QuadraticQuad},
		// Axisymmetric
		CatalogEntry{"CAX3", Triangle},
		CatalogEntry{"CAX4", Quad},
		CatalogEntry{"CAX6", QuadraticTriangle},
		CatalogEntry{"CAX8", QuadraticQuad},
		// Continuum solids
		CatalogEntry{"C3D4", Tetra},
		CatalogEntry{"C3D5", Pyramid},
		CatalogEntry{"C3D6", Wedge},
		CatalogEntry{"C3D8", Hexahedron},
		CatalogEntry{"C3D10", QuadraticTetra},
		CatalogEntry{"C3D15", QuadraticWedge},
		CatalogEntry{"C3D20", QuadraticHexahedron},
		// Conventional shells
		CatalogEntry{"STRI3", Triangle},
		CatalogEntry{"S3", Triangle},
		CatalogEntry{"S4", Quad},
		CatalogEntry{"S8", QuadraticQuad},
		// Continuum shells
		CatalogEntry{"SC6", Wedge},
		CatalogEntry{"SC8", Hexahedron},
		// Solid shell
		CatalogEntry{"CSS8", Hexahedron},
	)
}

// Resolve strips the variant suffix of an element type tag. An entry
// matches when it is a prefix of the tag and the prefix does not end in
// the middle of a digit run, so "C3D8R" is a C3D8 while "C3D10" is not a
// C3D1. The first matching entry wins.
func (c ElementCatalog) Resolve(tag string) (entry CatalogEntry, ok bool) {
	for _, e := range c.entries {
		if !strings.HasPrefix(tag, e.Tag) {
			continue
		}
		if len(tag) > len(e.Tag) && isDigit(tag[len(e.Tag)]) && isDigit(tag[len(e.Tag)-1]) {
			continue
		}
		return e, true
	}
	return
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// CellTypes returns the distinct cell topologies of the resolvable
// elements, in ascending order. Empty means there is nothing to convert.
func (c ElementCatalog) CellTypes(elements []odb.Element) (types []CellType) {
	seen := make(map[CellType]bool)
	for _, el := range elements {
		e, ok := c.Resolve(el.Type)
		if !ok || seen[e.Cell] {
			continue
		}
		seen[e.Cell] = true
		types = append(types, e.Cell)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return
}

// Tags lists the base tags in declaration order
func (c ElementCatalog) Tags() (tags []string) {
	for _, e := range c.entries {
		tags = append(tags, e.Tag)
	}
	return
}
