package vtk

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type vtkFile struct {
	XMLName          xml.Name          `xml:"VTKFile"`
	Type             string            `xml:"type,attr"`
	Version          string            `xml:"version,attr"`
	ByteOrder        string            `xml:"byte_order,attr"`
	HeaderType       string            `xml:"header_type,attr"`
	UnstructuredGrid *unstructuredGrid `xml:"UnstructuredGrid,omitempty"`
	Collection       *collection       `xml:"vtkPartitionedDataSetCollection,omitempty"`
}

type unstructuredGrid struct {
	Piece piece `xml:"Piece"`
}

type piece struct {
	NumberOfPoints int        `xml:"NumberOfPoints,attr"`
	NumberOfCells  int        `xml:"NumberOfCells,attr"`
	PointData      attributes `xml:"PointData"`
	CellData       attributes `xml:"CellData"`
	Points         dataArrays `xml:"Points"`
	Cells          dataArrays `xml:"Cells"`
}

type attributes struct {
	Scalars string      `xml:"Scalars,attr,omitempty"`
	Vectors string      `xml:"Vectors,attr,omitempty"`
	Tensors string      `xml:"Tensors,attr,omitempty"`
	Arrays  []dataArray `xml:"DataArray"`
}

type dataArrays struct {
	Arrays []dataArray `xml:"DataArray"`
}

type dataArray struct {
	Type               string `xml:"type,attr"`
	Name               string `xml:"Name,attr,omitempty"`
	NumberOfComponents int    `xml:"NumberOfComponents,attr,omitempty"`
	Format             string `xml:"format,attr"`
	Data               string `xml:",chardata"`
}

type collection struct {
	Partitions []partitions `xml:"Partitions"`
}

type partitions struct {
	Index    int       `xml:"index,attr"`
	Name     string    `xml:"name,attr,omitempty"`
	DataSets []dataSet `xml:"DataSet"`
}

type dataSet struct {
	Index int    `xml:"index,attr"`
	File  string `xml:"file,attr"`
}

func newFile(fileType string) *vtkFile {
	return &vtkFile{
		Type:       fileType,
		Version:    "1.0",
		ByteOrder:  "LittleEndian",
		HeaderType: "UInt64",
	}
}

func formatFloats(values []float64) string {
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return sb.String()
}

func formatInts(values []int) string {
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

// attach converts the arrays of one association. The first array of each
// role becomes the active attribute for that role.
func attach(arrays []*DataArray) (a attributes) {
	for _, arr := range arrays {
		switch arr.Role {
		case ScalarRole:
			if a.Scalars == "" {
				a.Scalars = arr.Name
			}
		case VectorRole:
			if a.Vectors == "" {
				a.Vectors = arr.Name
			}
		case TensorRole:
			if a.Tensors == "" {
				a.Tensors = arr.Name
			}
		}
		a.Arrays = append(a.Arrays, dataArray{
			Type:               "Float64",
			Name:               arr.Name,
			NumberOfComponents: arr.Components,
			Format:             "ascii",
			Data:               formatFloats(arr.Values),
		})
	}
	return
}

func (p *Piece) grid() *vtkFile {
	f := newFile("UnstructuredGrid")
	types := make([]int, len(p.Cells.Types))
	for i, t := range p.Cells.Types {
		types[i] = int(t)
	}
	f.UnstructuredGrid = &unstructuredGrid{Piece: piece{
		NumberOfPoints: p.NumPoints(),
		NumberOfCells:  p.Cells.NumCells(),
		PointData:      attach(p.PointData),
		CellData:       attach(p.CellData),
		Points: dataArrays{Arrays: []dataArray{{
			Type: "Float64", NumberOfComponents: 3, Format: "ascii", Data: formatFloats(p.Points),
		}}},
		Cells: dataArrays{Arrays: []dataArray{
			{Type: "Int64", Name: "connectivity", Format: "ascii", Data: formatInts(p.Cells.Connectivity)},
			{Type: "Int64", Name: "offsets", Format: "ascii", Data: formatInts(p.Cells.Offsets)},
			{Type: "UInt8", Name: "types", Format: "ascii", Data: formatInts(types)},
		}},
	}}
	return f
}

func writeXML(path string, f *vtkFile) (err error) {
	var out *os.File
	if out, err = os.Create(path); err != nil {
		return
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err = out.WriteString(xml.Header); err != nil {
		return
	}
	enc := xml.NewEncoder(out)
	enc.Indent("", "  ")
	if err = enc.Encode(f); err != nil {
		return
	}
	_, err = out.WriteString("\n")
	return
}

// FileWriter writes a partition as a .vtpc collection file referencing one
// .vtu file per piece. The pieces go to a directory named after the
// collection file.
type FileWriter struct{}

func (FileWriter) Write(ctx context.Context, path string, p *Partition) (err error) {
	var (
		dir     = filepath.Dir(path)
		base    = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		pieces  = filepath.Join(dir, base)
		coll    = newFile("vtkPartitionedDataSetCollection")
		entries = &collection{}
	)
	if err = os.MkdirAll(pieces, 0755); err != nil {
		return
	}
	for i := range p.Pieces {
		if err = ctx.Err(); err != nil {
			return
		}
		name := fmt.Sprintf("%s_%d_0.vtu", base, i)
		if err = writeXML(filepath.Join(pieces, name), p.Pieces[i].grid()); err != nil {
			return fmt.Errorf("writing piece %s: %w", p.Pieces[i].Name, err)
		}
		entries.Partitions = append(entries.Partitions, partitions{
			Index:    i,
			Name:     p.Pieces[i].Name,
			DataSets: []dataSet{{Index: 0, File: base + "/" + name}},
		})
	}
	coll.Collection = entries
	return writeXML(path, coll)
}
