package odb

import (
	"fmt"
	"math"
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

type ipGroupKey struct {
	instance     string
	element      int
	sectionPoint int
}

type ipGroup struct {
	key      ipGroupKey
	ips      []FieldValue
	nodes    []int
	row, col int // offsets into the global operator
}

// extrapolate re-expresses integration point values at the element nodes.
// All element operators are assembled into one block diagonal sparse
// operator which is applied once per component.
func (fo *FieldOutput) extrapolate() *FieldOutput {
	var (
		groups     []*ipGroup
		index      = make(map[ipGroupKey]*ipGroup)
		out        []FieldValue
		width      int
		rows, cols int
	)
	for _, v := range fo.Values {
		switch v.Position {
		case ElementNodal:
			out = append(out, v)
			continue
		case IntegrationPoint:
		default:
			continue
		}
		key := ipGroupKey{v.Instance, v.ElementLabel, v.SectionPoint.Number}
		g, ok := index[key]
		if !ok {
			g = &ipGroup{key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.ips = append(g.ips, v)
		if len(v.Data) > width {
			width = len(v.Data)
		}
	}
	if fo.geometry == nil {
		return fo.derive(out)
	}
	kept := groups[:0]
	for _, g := range groups {
		el, ok := fo.geometry.Element(g.key.instance, g.key.element)
		if !ok || len(el.Connectivity) == 0 {
			continue
		}
		sort.SliceStable(g.ips, func(i, j int) bool {
			return g.ips[i].IntegrationPoint < g.ips[j].IntegrationPoint
		})
		g.nodes = el.Connectivity
		g.row, g.col = rows, cols
		rows += len(g.nodes)
		cols += len(g.ips)
		kept = append(kept, g)
	}
	if rows == 0 {
		return fo.derive(out)
	}

	dok := sparse.NewDOK(rows, cols)
	for _, g := range kept {
		E := extrapolationMatrix(len(g.nodes), len(g.ips))
		for i := range g.nodes {
			for j := range g.ips {
				if e := E.At(i, j); e != 0 {
					dok.Set(g.row+i, g.col+j, e)
				}
			}
		}
	}
	op := dok.ToCSR()

	results := make([][]float64, width)
	for c := 0; c < width; c++ {
		x := make([]float64, cols)
		for _, g := range kept {
			for j, ip := range g.ips {
				if c < len(ip.Data) {
					x[g.col+j] = ip.Data[c]
				}
			}
		}
		var y mat.VecDense
		y.MulVec(op, mat.NewVecDense(cols, x))
		results[c] = y.RawVector().Data
	}

	for _, g := range kept {
		tmpl := g.ips[0]
		for i, n := range g.nodes {
			data := make([]float64, len(tmpl.Data))
			for c := range data {
				data[c] = results[c][g.row+i]
			}
			out = append(out, FieldValue{
				Instance:     tmpl.Instance,
				ElementLabel: g.key.element,
				NodeLabel:    n,
				Position:     ElementNodal,
				SectionPoint: tmpl.SectionPoint,
				Precision:    tmpl.Precision,
				Data:         data,
			})
		}
	}
	return fo.derive(out)
}

// Keyed by [number of element nodes, number of integration points]
var extrapolators = map[[2]int]*mat.Dense{}

func init() {
	g := 1. / math.Sqrt(3.)
	var (
		quadNodes = [][]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
		quadIPs   = [][]float64{{-g, -g}, {g, -g}, {-g, g}, {g, g}}
		hexNodes  = [][]float64{
			{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
		}
		hexIPs [][]float64
	)
	for _, z := range []float64{-g, g} {
		for _, y := range []float64{-g, g} {
			for _, x := range []float64{-g, g} {
				hexIPs = append(hexIPs, []float64{x, y, z})
			}
		}
	}
	quad := gaussExtrapolator(quadNodes, quadIPs)
	hex := gaussExtrapolator(hexNodes, hexIPs)
	extrapolators[[2]int{4, 4}] = quad
	extrapolators[[2]int{8, 8}] = hex
	extrapolators[[2]int{8, 4}] = withMidsideNodes(quad,
		[][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}})
	extrapolators[[2]int{20, 8}] = withMidsideNodes(hex,
		[][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4},
			{0, 4}, {1, 5}, {2, 6}, {3, 7}})
}

// gaussExtrapolator inverts the matrix of multilinear shape functions
// evaluated at the Gauss points
func gaussExtrapolator(nodes, ips [][]float64) *mat.Dense {
	N := mat.NewDense(len(ips), len(nodes), nil)
	for ip, xi := range ips {
		for n, xn := range nodes {
			val := 1.
			for d := range xi {
				val *= 0.5 * (1 + xi[d]*xn[d])
			}
			N.Set(ip, n, val)
		}
	}
	var E mat.Dense
	if err := E.Inverse(N); err != nil {
		panic(fmt.Errorf("unable to invert shape function matrix: %v", err))
	}
	return &E
}

// withMidsideNodes appends rows averaging the corner rows of each edge
func withMidsideNodes(corners *mat.Dense, edges [][2]int) *mat.Dense {
	nc, nip := corners.Dims()
	E := mat.NewDense(nc+len(edges), nip, nil)
	for i := 0; i < nc; i++ {
		E.SetRow(i, corners.RawRowView(i))
	}
	for k, e := range edges {
		for j := 0; j < nip; j++ {
			E.Set(nc+k, j, 0.5*(corners.At(e[0], j)+corners.At(e[1], j)))
		}
	}
	return E
}

func extrapolationMatrix(numNodes, numIPs int) *mat.Dense {
	if E, ok := extrapolators[[2]int{numNodes, numIPs}]; ok {
		return E
	}
	// Element averaging for reduced integration and unknown schemes
	E := mat.NewDense(numNodes, numIPs, nil)
	w := 1. / float64(numIPs)
	for i := 0; i < numNodes; i++ {
		for j := 0; j < numIPs; j++ {
			E.Set(i, j, w)
		}
	}
	return E
}
