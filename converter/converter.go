package converter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/odb2vtk/InputParameters"
	"github.com/notargets/odb2vtk/mesh"
	"github.com/notargets/odb2vtk/odb"
	"github.com/notargets/odb2vtk/utils"
	"github.com/notargets/odb2vtk/vtk"
)

// Writer persists the partition of one frame
type Writer interface {
	Write(ctx context.Context, path string, p *vtk.Partition) error
}

type Converter struct {
	request   *InputParameters.OutputRequest
	catalog   mesh.ElementCatalog
	writer    Writer
	log       *zap.Logger
	workers   int
	dedupe    bool
	outputDir string

	meshes map[string]*mesh.InstanceMesh
	// Per frame state, cleared before each frame
	cellData  map[string][]*vtk.DataArray
	pointData map[string][]*vtk.DataArray
}

type Option func(*Converter)

func WithLogger(log *zap.Logger) Option {
	return func(c *Converter) { c.log = log }
}

func WithCatalog(catalog mesh.ElementCatalog) Option {
	return func(c *Converter) { c.catalog = catalog }
}

func WithWriter(w Writer) Option {
	return func(c *Converter) { c.writer = w }
}

// WithParameters applies the run parameters: worker count, match
// deduplication and output directory
func WithParameters(cp InputParameters.ConverterParameters) Option {
	return func(c *Converter) {
		if cp.Workers > 0 {
			c.workers = cp.Workers
		}
		c.dedupe = cp.Dedupe
		c.outputDir = cp.OutputDir
	}
}

// New creates a converter for a validated output request
func New(request *InputParameters.OutputRequest, opts ...Option) *Converter {
	defaults := InputParameters.DefaultConverterParameters()
	c := &Converter{
		request: request,
		catalog: mesh.DefaultCatalog(),
		writer:  vtk.FileWriter{},
		log:     zap.NewNop(),
		workers: defaults.Workers,
		dedupe:  defaults.Dedupe,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert writes one partitioned output file per matched frame. file is
// the database path the output location is derived from.
func (c *Converter) Convert(ctx context.Context, db odb.Reader, file string) (err error) {
	var (
		summary odb.FieldSummary
		matches MatchResult
		log     = c.log.With(zap.String("run", uuid.NewString()), zap.String("database", db.Name()))
	)
	if summary, err = odb.SummarizeFields(db, c.request.StepNames()); err != nil {
		return fmt.Errorf("summarizing fields: %w", err)
	}
	instances := odb.SummarizeInstances(db)
	if matches, err = Match(summary.AvailableFrames(), summary.AvailableFields(), c.request, c.dedupe); err != nil {
		return
	}
	log.Info("Matched output request", zap.Int("steps", len(matches.Steps)),
		zap.Int("frames", matches.NumFrames()))

	if err = c.assembleMeshes(ctx, db, log); err != nil {
		return
	}
	if len(c.meshes) == 0 {
		return fmt.Errorf("%s: %w", db.Name(), mesh.ErrNothingToConvert)
	}

	for _, sm := range matches.Steps {
		var step *odb.Step
		if step, err = db.Step(sm.Step); err != nil {
			return
		}
		for _, frameID := range sm.Frames {
			if err = ctx.Err(); err != nil {
				return
			}
			var frame *odb.Frame
			if frame, err = step.Frame(frameID); err != nil {
				return
			}
			flog := log.With(zap.String("step", sm.Step), zap.Int("frame", frameID))
			if err = c.convertFrame(db, frame, sm.Fields[frameID], instances, flog); err != nil {
				return
			}
			path := vtk.OutputPath(c.outputDir, file, frameID)
			if err = c.writer.Write(ctx, path, c.partition(sm.Step, frameID)); err != nil {
				return fmt.Errorf("writing frame %d of %s: %w", frameID, sm.Step, err)
			}
			flog.Info("Wrote frame", zap.String("path", path))
			flog.Debug("Memory usage", zap.String("usage", utils.GetMemUsage()))
		}
	}
	log.Info("Completed field data conversion")
	return nil
}

// assembleMeshes builds the mesh of every instance, one instance per
// worker. Instances without supported elements are left out.
func (c *Converter) assembleMeshes(ctx context.Context, db odb.Reader, log *zap.Logger) error {
	var (
		mu      sync.Mutex
		g, gctx = errgroup.WithContext(ctx)
	)
	c.meshes = make(map[string]*mesh.InstanceMesh)
	g.SetLimit(c.workers)
	for _, inst := range db.Instances() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := mesh.Assemble(c.catalog, inst)
			if errors.Is(err, mesh.ErrNothingToConvert) {
				log.Warn("Skipping instance without supported elements", zap.String("instance", inst.Name))
				return nil
			}
			if err != nil {
				return err
			}
			for _, el := range m.Skipped {
				log.Warn("Ignoring unsupported element", zap.String("instance", inst.Name),
					zap.Int("element", el.Label), zap.String("type", el.Type))
			}
			mu.Lock()
			c.meshes[inst.Name] = m
			mu.Unlock()
			log.Info("Converted mesh data", zap.String("instance", inst.Name),
				zap.Int("points", m.NumPoints()), zap.Int("cells", m.NumCells()))
			return nil
		})
	}
	return g.Wait()
}

func (c *Converter) convertFrame(db odb.Reader, frame *odb.Frame, fieldNames []string,
	instances map[string]odb.InstanceSummary, log *zap.Logger) (err error) {
	c.cellData = make(map[string][]*vtk.DataArray)
	c.pointData = make(map[string][]*vtk.DataArray)

	fields := make([]*odb.FieldOutput, len(fieldNames))
	for i, name := range fieldNames {
		if fields[i], err = frame.FieldOutput(name); err != nil {
			return
		}
	}
	for _, inst := range db.Instances() {
		m, ok := c.meshes[inst.Name]
		if !ok {
			continue
		}
		summary := instances[inst.Name]
		if !summary.Supported {
			log.Warn("Ignoring instance mixing composite and non-composite sections",
				zap.String("instance", inst.Name), zap.Strings("sections", summary.SectionCategories))
			continue
		}
		for _, fo := range fields {
			instField := fo.SubsetInstance(inst.Name)
			if len(instField.Values) == 0 {
				continue
			}
			cellData, pointData, err := Extract(instField, m, summary.Composite)
			if errors.Is(err, ErrSkipField) {
				log.Warn("Skipping field", zap.Error(err))
				continue
			}
			if err != nil {
				return err
			}
			if fo.Type.IsTensor() {
				log.Debug("Tensor fields are not converted", zap.String("field", fo.Name))
			}
			for _, arrays := range [][]*vtk.DataArray{cellData, pointData} {
				for _, arr := range arrays {
					if utils.IsNan(arr.Values) {
						log.Warn("Field contains NaN values", zap.String("instance", inst.Name),
							zap.String("field", arr.Name))
					}
				}
			}
			c.cellData[inst.Name] = append(c.cellData[inst.Name], cellData...)
			c.pointData[inst.Name] = append(c.pointData[inst.Name], pointData...)
		}
	}
	return nil
}

// partition gathers the meshes and the current frame's arrays in
// instance name order
func (c *Converter) partition(step string, frame int) *vtk.Partition {
	names := make([]string, 0, len(c.meshes))
	for name := range c.meshes {
		names = append(names, name)
	}
	sort.Strings(names)
	p := &vtk.Partition{Step: step, Frame: frame}
	for _, name := range names {
		m := c.meshes[name]
		p.Pieces = append(p.Pieces, vtk.Piece{
			Name:      name,
			Points:    m.Points,
			Cells:     m.Cells,
			PointData: c.pointData[name],
			CellData:  c.cellData[name],
		})
	}
	return p
}
