package odb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

const Extension = ".odb"

const schema = `
CREATE TABLE instances (ord INTEGER, name TEXT PRIMARY KEY, dimensionality INTEGER);
CREATE TABLE nodes (instance TEXT, ord INTEGER, label INTEGER, coordinates BLOB);
CREATE TABLE elements (instance TEXT, ord INTEGER, label INTEGER, type TEXT,
	section_category TEXT, connectivity TEXT);
CREATE TABLE steps (ord INTEGER, name TEXT PRIMARY KEY, description TEXT);
CREATE TABLE frames (step TEXT, ord INTEGER, frame_id INTEGER, increment INTEGER,
	value REAL, description TEXT);
CREATE TABLE field_outputs (step TEXT, frame_id INTEGER, ord INTEGER, name TEXT,
	description TEXT, data_type INTEGER, component_labels TEXT);
CREATE TABLE field_values (step TEXT, frame_id INTEGER, field TEXT, ord INTEGER,
	instance TEXT, element_label INTEGER, node_label INTEGER, integration_point INTEGER,
	position INTEGER, section_point INTEGER, section_description TEXT,
	precision INTEGER, data BLOB);
`

// Open loads an analysis database file into memory
func Open(ctx context.Context, path string) (db *Database, err error) {
	var (
		info os.FileInfo
		sqdb *sql.DB
	)
	if info, err = os.Stat(path); err != nil {
		return nil, fmt.Errorf("file does not exist: %w", err)
	}
	if filepath.Ext(path) != Extension {
		return nil, fmt.Errorf("%s: %w", path, ErrNotODB)
	}
	if sqdb, err = sql.Open("sqlite", path); err != nil {
		return nil, err
	}
	defer sqdb.Close()

	db = NewDatabase(filepath.Base(path))
	db.path, _ = filepath.Abs(path)
	db.size = info.Size()
	if err = db.loadInstances(ctx, sqdb); err != nil {
		return nil, fmt.Errorf("reading instances of %s: %w", path, err)
	}
	if err = db.loadSteps(ctx, sqdb); err != nil {
		return nil, fmt.Errorf("reading steps of %s: %w", path, err)
	}
	return
}

func (db *Database) loadInstances(ctx context.Context, sqdb *sql.DB) (err error) {
	var rows *sql.Rows
	if rows, err = sqdb.QueryContext(ctx,
		`SELECT name, dimensionality FROM instances ORDER BY ord`); err != nil {
		return
	}
	var instances []*Instance
	for rows.Next() {
		inst := &Instance{}
		if err = rows.Scan(&inst.Name, &inst.Dimensionality); err != nil {
			rows.Close()
			return
		}
		instances = append(instances, inst)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return
	}
	for _, inst := range instances {
		if err = loadNodes(ctx, sqdb, inst); err != nil {
			return
		}
		if err = loadElements(ctx, sqdb, inst); err != nil {
			return
		}
		db.AddInstance(inst)
	}
	return
}

func loadNodes(ctx context.Context, sqdb *sql.DB, inst *Instance) (err error) {
	var rows *sql.Rows
	if rows, err = sqdb.QueryContext(ctx,
		`SELECT label, coordinates FROM nodes WHERE instance = ? ORDER BY ord`,
		inst.Name); err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		var (
			n    Node
			blob []byte
		)
		if err = rows.Scan(&n.Label, &blob); err != nil {
			return
		}
		n.Coordinates = decodeFloats(blob)
		inst.Nodes = append(inst.Nodes, n)
	}
	return rows.Err()
}

func loadElements(ctx context.Context, sqdb *sql.DB, inst *Instance) (err error) {
	var rows *sql.Rows
	if rows, err = sqdb.QueryContext(ctx,
		`SELECT label, type, section_category, connectivity FROM elements
		WHERE instance = ? ORDER BY ord`, inst.Name); err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		var (
			el   Element
			conn string
		)
		if err = rows.Scan(&el.Label, &el.Type, &el.SectionCategory, &conn); err != nil {
			return
		}
		if el.Connectivity, err = parseLabels(conn); err != nil {
			return fmt.Errorf("element %d: %w", el.Label, err)
		}
		inst.Elements = append(inst.Elements, el)
	}
	return rows.Err()
}

type frameKey struct {
	step  string
	frame int
}

type fieldKey struct {
	frameKey
	name string
}

func (db *Database) loadSteps(ctx context.Context, sqdb *sql.DB) (err error) {
	var (
		rows   *sql.Rows
		frames = make(map[frameKey]*Frame)
		fields = make(map[fieldKey]*FieldOutput)
	)
	if rows, err = sqdb.QueryContext(ctx,
		`SELECT name, description FROM steps ORDER BY ord`); err != nil {
		return
	}
	for rows.Next() {
		var name, desc string
		if err = rows.Scan(&name, &desc); err != nil {
			rows.Close()
			return
		}
		db.AddStep(name, desc)
	}
	rows.Close()

	if rows, err = sqdb.QueryContext(ctx,
		`SELECT step, frame_id, increment, value, description FROM frames ORDER BY step, ord`); err != nil {
		return
	}
	for rows.Next() {
		var (
			stepName, desc string
			id, inc        int
			value          float64
			step           *Step
		)
		if err = rows.Scan(&stepName, &id, &inc, &value, &desc); err != nil {
			rows.Close()
			return
		}
		if step, err = db.Step(stepName); err != nil {
			rows.Close()
			return
		}
		frames[frameKey{stepName, id}] = db.AddFrame(step, id, inc, value, desc)
	}
	rows.Close()

	if rows, err = sqdb.QueryContext(ctx,
		`SELECT step, frame_id, name, description, data_type, component_labels
		FROM field_outputs ORDER BY step, frame_id, ord`); err != nil {
		return
	}
	for rows.Next() {
		var (
			fk         fieldKey
			desc, lbls string
			dataType   DataType
		)
		if err = rows.Scan(&fk.step, &fk.frame, &fk.name, &desc, &dataType, &lbls); err != nil {
			rows.Close()
			return
		}
		frame, ok := frames[fk.frameKey]
		if !ok {
			rows.Close()
			return fmt.Errorf("field output %s references frame %d of %s: %w",
				fk.name, fk.frame, fk.step, ErrNotFound)
		}
		var labels []string
		if lbls != "" {
			labels = strings.Fields(lbls)
		}
		fields[fk] = db.AddFieldOutput(frame, fk.name, desc, dataType, labels...)
	}
	rows.Close()

	if rows, err = sqdb.QueryContext(ctx,
		`SELECT step, frame_id, field, instance, element_label, node_label, integration_point,
		position, section_point, section_description, precision, data
		FROM field_values ORDER BY step, frame_id, field, ord`); err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		var (
			fk   fieldKey
			v    FieldValue
			blob []byte
		)
		if err = rows.Scan(&fk.step, &fk.frame, &fk.name, &v.Instance, &v.ElementLabel,
			&v.NodeLabel, &v.IntegrationPoint, &v.Position, &v.SectionPoint.Number,
			&v.SectionPoint.Description, &v.Precision, &blob); err != nil {
			return
		}
		fo, ok := fields[fk]
		if !ok {
			return fmt.Errorf("field value references field output %s: %w", fk.name, ErrNotFound)
		}
		v.Data = decodeFloats(blob)
		fo.AddValue(v)
	}
	return rows.Err()
}

// Save writes the database to a new file at path
func (db *Database) Save(ctx context.Context, path string) (err error) {
	var (
		sqdb *sql.DB
		tx   *sql.Tx
	)
	if _, err = os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if sqdb, err = sql.Open("sqlite", path); err != nil {
		return
	}
	defer sqdb.Close()
	if _, err = sqdb.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if tx, err = sqdb.BeginTx(ctx, nil); err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for i, inst := range db.instances {
		if _, err = tx.ExecContext(ctx, `INSERT INTO instances VALUES (?, ?, ?)`,
			i, inst.Name, inst.Dimensionality); err != nil {
			return
		}
		for j, n := range inst.Nodes {
			if _, err = tx.ExecContext(ctx, `INSERT INTO nodes VALUES (?, ?, ?, ?)`,
				inst.Name, j, n.Label, encodeFloats(n.Coordinates)); err != nil {
				return
			}
		}
		for j, el := range inst.Elements {
			if _, err = tx.ExecContext(ctx, `INSERT INTO elements VALUES (?, ?, ?, ?, ?, ?)`,
				inst.Name, j, el.Label, el.Type, el.SectionCategory,
				formatLabels(el.Connectivity)); err != nil {
				return
			}
		}
	}
	for i, s := range db.steps {
		if _, err = tx.ExecContext(ctx, `INSERT INTO steps VALUES (?, ?, ?)`,
			i, s.Name, s.Description); err != nil {
			return
		}
		for j, f := range s.Frames {
			if _, err = tx.ExecContext(ctx, `INSERT INTO frames VALUES (?, ?, ?, ?, ?, ?)`,
				s.Name, j, f.ID, f.Increment, f.Value, f.Description); err != nil {
				return
			}
			for k, fo := range f.Fields {
				if _, err = tx.ExecContext(ctx, `INSERT INTO field_outputs VALUES (?, ?, ?, ?, ?, ?, ?)`,
					s.Name, f.ID, k, fo.Name, fo.Description, fo.Type,
					strings.Join(fo.ComponentLabels, " ")); err != nil {
					return
				}
				for l, v := range fo.Values {
					if _, err = tx.ExecContext(ctx,
						`INSERT INTO field_values VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
						s.Name, f.ID, fo.Name, l, v.Instance, v.ElementLabel, v.NodeLabel,
						v.IntegrationPoint, v.Position, v.SectionPoint.Number,
						v.SectionPoint.Description, v.Precision, encodeFloats(v.Data)); err != nil {
						return
					}
				}
			}
		}
	}
	return tx.Commit()
}

func encodeFloats(data []float64) []byte {
	buf := make([]byte, 8*len(data))
	for i, d := range data {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(d))
	}
	return buf
}

func decodeFloats(buf []byte) []float64 {
	data := make([]float64, len(buf)/8)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return data
}

func formatLabels(labels []int) string {
	s := make([]string, len(labels))
	for i, l := range labels {
		s[i] = strconv.Itoa(l)
	}
	return strings.Join(s, " ")
}

func parseLabels(s string) (labels []int, err error) {
	fields := strings.Fields(s)
	labels = make([]int, len(fields))
	for i, f := range fields {
		if labels[i], err = strconv.Atoi(f); err != nil {
			return nil, err
		}
	}
	return
}
