package session

import (
	"fmt"

	"github.com/verte-zerg/towstat/internal/metric"
	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/monitoring"
	"github.com/verte-zerg/towstat/internal/tables"
	"github.com/verte-zerg/towstat/internal/views"
)

// Views is the set of snapshots the dashboard renders.
type Views struct {
	Dataset    *views.DatasetSnapshot
	Categories *views.CategorySnapshot
	Oldest     *tables.StaticTable
	// IncludeDirtbikes picks the quantity column of the category chart. It
	// is not a dependency of the category snapshot.
	IncludeDirtbikes bool
}

// Stats counts recomputations per view.
type Stats struct {
	Changes            int
	DatasetRecomputes  int
	CategoryRecomputes int
}

type datasetDeps struct {
	dateRange        model.DateRange
	metrics          model.Selection
	includeDirtbikes bool
}

func (d datasetDeps) equal(o datasetDeps) bool {
	return d.dateRange.Equal(o.dateRange) &&
		d.metrics.Equal(o.metrics) &&
		d.includeDirtbikes == o.includeDirtbikes
}

type categoryDeps struct {
	categories model.Selection
}

func (d categoryDeps) equal(o categoryDeps) bool {
	return d.categories.Equal(o.categories)
}

// Scheduler owns the session parameters and the cached snapshots. Each view
// remembers the parameter values it was computed from and is rebuilt only
// when one of those values changes. It is not safe for concurrent use.
type Scheduler struct {
	base   *tables.BaseTables
	params Params

	datasetDeps  datasetDeps
	dataset      *views.DatasetSnapshot
	categoryDeps categoryDeps
	categories   *views.CategorySnapshot

	stats Stats
}

// New validates the starting parameters and computes every view once.
func New(base *tables.BaseTables, params Params) (*Scheduler, error) {
	params.Metrics = model.NewSelection(params.Metrics...)
	params.Categories = model.NewSelection(params.Categories...)
	if err := params.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{base: base, params: params}
	s.recompute()
	return s, nil
}

// Apply mutates the parameters and returns the refreshed views. An invalid
// change leaves parameters and snapshots untouched.
func (s *Scheduler) Apply(change Change) (Views, error) {
	next := change.apply(s.params)
	if err := next.Validate(); err != nil {
		monitoring.Logf("rejected change %s: %v", change, err)
		return s.Views(), err
	}
	s.params = next
	s.stats.Changes++
	s.recompute()
	return s.Views(), nil
}

// Views returns the current snapshots.
func (s *Scheduler) Views() Views {
	return Views{
		Dataset:          s.dataset,
		Categories:       s.categories,
		Oldest:           s.base.Oldest(),
		IncludeDirtbikes: s.params.IncludeDirtbikes,
	}
}

// Params returns the current parameters.
func (s *Scheduler) Params() Params {
	p := s.params
	p.Metrics = model.NewSelection(p.Metrics...)
	p.Categories = model.NewSelection(p.Categories...)
	return p
}

// Columns returns the concrete columns the dataset view projects for the
// current parameters.
func (s *Scheduler) Columns() []string {
	return metric.Resolve(s.params.Metrics.Keys(), s.params.IncludeDirtbikes)
}

// Stats returns the recompute counters.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

func (s *Scheduler) recompute() {
	dd := datasetDeps{
		dateRange:        s.params.DateRange,
		metrics:          s.params.Metrics,
		includeDirtbikes: s.params.IncludeDirtbikes,
	}
	if s.dataset == nil || !dd.equal(s.datasetDeps) {
		snap := views.Dataset(s.base.TimeSeries(), dd.dateRange, s.Columns())
		if s.dataset != nil {
			snap.Version = s.dataset.Version + 1
		} else {
			snap.Version = 1
		}
		s.dataset = snap
		s.datasetDeps = dd
		s.stats.DatasetRecomputes++
		if dropped := len(snap.Requested) - len(snap.Columns); dropped > 0 {
			monitoring.Logf("dataset v%d: %d requested columns not in table", snap.Version, dropped)
		}
		monitoring.Logf("dataset v%d: %d rows over %s", snap.Version, len(snap.Rows), dd.dateRange)
	}

	cd := categoryDeps{categories: s.params.Categories}
	if s.categories == nil || !cd.equal(s.categoryDeps) {
		snap := views.Categories(s.base.Categories(), cd.categories)
		if s.categories != nil {
			snap.Version = s.categories.Version + 1
		} else {
			snap.Version = 1
		}
		s.categories = snap
		s.categoryDeps = cd
		s.stats.CategoryRecomputes++
		monitoring.Logf("categories v%d: %d of %d selected", snap.Version, len(snap.Rows), len(cd.categories))
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("changes=%d dataset=%d categories=%d", s.Changes, s.DatasetRecomputes, s.CategoryRecomputes)
}
