package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/identity"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
	"github.com/jacksonlee411/attainment-reports/pkg/eventbus"
)

var ErrNoOutputRoot = errors.New("output root is not set")

// Report is everything a writer needs to persist one manager's workbook.
type Report struct {
	Label      string
	Name       string
	FiscalYear string
	Date       time.Time
	Items      Sequence
}

// ReportWriter persists a report at path, replacing any existing file.
type ReportWriter interface {
	WriteReport(report Report, path string) error
}

// ProgressFunc is called once per processed manager, written or skipped.
type ProgressFunc func(current, total int, description string)

type Artifact struct {
	Label    string `json:"label"`
	Region   string `json:"region"`
	SafeName string `json:"safe_name"`
	Path     string `json:"path"`
}

// ReportFailure isolates the error of a single manager.
type ReportFailure struct {
	Label  string
	Region string
	Err    error
}

func (f ReportFailure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Label, f.Region, f.Err)
}

type Result struct {
	RunID        uuid.UUID
	FiscalYear   string
	Total        int
	RegionCounts map[string]int
	Managers     []Artifact
	Failures     []ReportFailure
}

// Written is the number of reports persisted in the run.
func (r *Result) Written() int { return len(r.Managers) }

type GenerateOptions struct {
	OutputRoot string
	// Regions restricts generation to managers resolved to one of these
	// regions. Empty means every region.
	Regions []string
	// FiscalYear is detected from the records when empty.
	FiscalYear   string
	PrefixSuffix string
	// Date stamps file names and titles. Zero means now.
	Date     time.Time
	Match    MatchMode
	Source   string
	Progress ProgressFunc
}

type Generator struct {
	writer ReportWriter
	bus    eventbus.EventBus
	log    *logrus.Entry
	now    func() time.Time
}

// NewGenerator wires a generator. bus and log may be nil.
func NewGenerator(writer ReportWriter, bus eventbus.EventBus, log *logrus.Entry) *Generator {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	return &Generator{writer: writer, bus: bus, log: log, now: time.Now}
}

// Generate writes one workbook per candidate manager label under
// OutputRoot/<region>/. Report files of the regenerated regions left by an
// earlier run are removed first. A failing manager is recorded in
// Result.Failures and the batch goes on; cancellation is checked between
// managers.
func (g *Generator) Generate(ctx context.Context, records []record.Record, opts GenerateOptions) (*Result, error) {
	if opts.OutputRoot == "" {
		return nil, ErrNoOutputRoot
	}
	matcher, err := NewMatcher(opts.Match, records)
	if err != nil {
		return nil, err
	}
	started := g.now()
	idx := BuildIndex(records)
	regions := ResolveRegions(idx, records)
	builder := NewHierarchyBuilder(idx, matcher)

	fy := opts.FiscalYear
	if fy == "" {
		fy = DetectFiscalYear(records, DefaultFiscalYear)
	}
	date := opts.Date
	if date.IsZero() {
		date = started
	}
	prefix := ReportPrefix(fy, opts.PrefixSuffix)

	candidates, targets := selectCandidates(idx, regions, opts.Regions)
	res := &Result{
		RunID:        uuid.New(),
		FiscalYear:   fy,
		Total:        len(candidates),
		RegionCounts: make(map[string]int),
	}
	log := g.log.WithFields(logrus.Fields{"run.id": res.RunID.String(), "fiscal_year": fy})
	g.publish(&RunStarted{
		RunID:      res.RunID,
		FiscalYear: fy,
		Source:     opts.Source,
		Regions:    targets,
		Candidates: len(candidates),
		StartedAt:  started,
	})

	runErr := g.run(ctx, runState{
		res:        res,
		log:        log,
		builder:    builder,
		regions:    regions,
		candidates: candidates,
		targets:    targets,
		prefix:     prefix,
		date:       date,
		opts:       opts,
	})

	finished := g.now()
	log.WithFields(logrus.Fields{
		"total":    res.Total,
		"written":  res.Written(),
		"failed":   len(res.Failures),
		"duration": finished.Sub(started).String(),
	}).Info("report generation finished")
	g.publish(&RunFinished{
		RunID:      res.RunID,
		Result:     res,
		Duration:   finished.Sub(started),
		FinishedAt: finished,
		Err:        runErr,
	})
	return res, runErr
}

type runState struct {
	res        *Result
	log        *logrus.Entry
	builder    *HierarchyBuilder
	regions    RegionMap
	candidates []string
	targets    []string
	prefix     string
	date       time.Time
	opts       GenerateOptions
}

func (g *Generator) run(ctx context.Context, st runState) error {
	if err := cleanRegions(st.opts.OutputRoot, st.targets, st.prefix); err != nil {
		return err
	}

	written := make(map[string]string)
	for i, label := range st.candidates {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "generation interrupted")
		}
		region := st.regions.Region(label)
		log := st.log.WithFields(logrus.Fields{"manager.label": label, "region": region})

		artifact, err := g.generateOne(st, label, region)
		switch {
		case err != nil:
			f := ReportFailure{Label: label, Region: region, Err: err}
			st.res.Failures = append(st.res.Failures, f)
			log.WithError(err).Warn("report generation failed")
			g.publish(&ReportFailed{RunID: st.res.RunID, Failure: f})
		case artifact == nil:
			log.Debug("no matched records, skipped")
			g.publish(&ReportSkipped{RunID: st.res.RunID, Label: label, Region: region})
		default:
			if prev, ok := written[artifact.Path]; ok {
				log.WithField("overwritten.label", prev).Warn("report file name collision, previous report overwritten")
			}
			written[artifact.Path] = label
			st.res.Managers = append(st.res.Managers, *artifact)
			st.res.RegionCounts[region]++
			log.WithField("path", artifact.Path).Debug("report written")
			g.publish(&ReportWritten{RunID: st.res.RunID, Artifact: *artifact})
		}

		if st.opts.Progress != nil {
			st.opts.Progress(i+1, len(st.candidates), "Processing "+identity.ExtractName(label))
		}
	}
	return nil
}

func (g *Generator) generateOne(st runState, label, region string) (artifact *Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()

	items := st.builder.Build(label)
	if len(items) == 0 {
		return nil, nil
	}
	safe := SafeName(label)
	dir := RegionDir(st.opts.OutputRoot, region)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create region folder %s", dir)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.xlsx", st.prefix, safe, st.date.Format("20060102")))
	report := Report{
		Label:      label,
		Name:       identity.ReportName(label),
		FiscalYear: st.res.FiscalYear,
		Date:       st.date,
		Items:      items,
	}
	if err := g.writer.WriteReport(report, path); err != nil {
		return nil, errors.Wrapf(err, "write report %s", path)
	}
	return &Artifact{Label: label, Region: region, SafeName: safe, Path: path}, nil
}

func (g *Generator) publish(event any) {
	if g.bus != nil {
		g.bus.Publish(event)
	}
}

// SafeName is the file name fragment of a manager label.
func SafeName(label string) string {
	if safe := identity.SanitizeForFilename(identity.ExtractName(label)); safe != "" {
		return safe
	}
	return identity.Unknown
}

// RegionDir is the output folder of region under root.
func RegionDir(root, region string) string {
	name := identity.SanitizeForFilename(region)
	if name == "" {
		name = OtherRegion
	}
	return filepath.Join(root, name)
}

// selectCandidates returns the sorted candidate labels and the sorted regions
// that will be regenerated.
func selectCandidates(idx *Index, regions RegionMap, selected []string) ([]string, []string) {
	labels := idx.Labels()
	sort.Strings(labels)
	if len(selected) == 0 {
		return labels, regions.AllRegions()
	}

	want := make(map[string]struct{}, len(selected))
	targets := make([]string, 0, len(selected))
	for _, r := range selected {
		if _, ok := want[r]; ok {
			continue
		}
		want[r] = struct{}{}
		targets = append(targets, r)
	}
	sort.Strings(targets)

	out := labels[:0]
	for _, label := range labels {
		if _, ok := want[regions.Region(label)]; ok {
			out = append(out, label)
		}
	}
	return out, targets
}

// cleanRegions removes report files with prefix from the folders of regions.
// Other files are left alone, including reports of another fiscal year whose
// prefix differs.
func cleanRegions(root string, regions []string, prefix string) error {
	for _, region := range regions {
		dir := RegionDir(root, region)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "list region folder %s", dir)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasPrefix(name, prefix+"_") || !strings.HasSuffix(name, ".xlsx") {
				continue
			}
			if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, "remove stale report %s", name)
			}
		}
	}
	return nil
}
