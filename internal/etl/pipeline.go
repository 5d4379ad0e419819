// Package etl runs the cleaning stages over an incident frame in their fixed
// order and derives the temporal features.
package etl

import (
	"fmt"
	"time"

	"github.com/crimeprep/internal/debug"
	"github.com/crimeprep/internal/normalize"
	"github.com/crimeprep/internal/records"
)

// RunStats summarises one pipeline run.
type RunStats struct {
	RowsIn              int                     `json:"rows_in"`
	RowsOut             int                     `json:"rows_out"`
	CategoriesRewritten int                     `json:"categories_rewritten"`
	LocationsImputed    int                     `json:"locations_imputed"`
	LocationsRewritten  int                     `json:"locations_rewritten"`
	RowsDropped         int                     `json:"rows_dropped"`
	Stages              []Stage                 `json:"stages"`
	Durations           map[Stage]time.Duration `json:"durations"`
}

// Pipeline runs a validated list of stages.
type Pipeline struct {
	stages  []Stage
	verbose bool
}

// NewPipeline builds a pipeline from the stage toggles.
func NewPipeline(flags Flags) *Pipeline {
	return &Pipeline{stages: flags.Stages(), verbose: flags.Verbose}
}

// PipelineFromStages builds a pipeline from an explicit stage list. The list
// must follow run order without repeats.
func PipelineFromStages(stages []Stage, verbose bool) (*Pipeline, error) {
	if err := checkOrder(stages); err != nil {
		return nil, err
	}
	out := make([]Stage, len(stages))
	copy(out, stages)
	return &Pipeline{stages: out, verbose: verbose}, nil
}

// Stages returns the stages this pipeline runs.
func (p *Pipeline) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// Run applies every stage to f in place, then reindexes the rows. The first
// failing stage stops the run; its error is returned wrapped with the stage name.
func (p *Pipeline) Run(f *records.Frame) (*RunStats, error) {
	stats := &RunStats{
		RowsIn:    f.Len(),
		Stages:    p.Stages(),
		Durations: make(map[Stage]time.Duration, len(p.stages)),
	}

	debug.DebugHeader(p.verbose)
	defer debug.DebugFooter(p.verbose)

	debug.DebugOutput(p.verbose, "Cleaning Started...")
	if p.runs(StageImputeLocation) && !p.runs(StageNormalizeCategory) {
		debug.DebugOutput(p.verbose, "Imputing locations from categories that were not normalized")
	}

	for _, s := range p.stages {
		start := time.Now()
		if err := p.runStage(s, f, stats); err != nil {
			return stats, fmt.Errorf("%s: %w", s, err)
		}
		stats.Durations[s] = time.Since(start)
		debug.DebugOutput(p.verbose, "%s", stageMessages[s])
	}

	f.Reindex()
	stats.RowsOut = f.Len()
	debug.DebugOutput(p.verbose, "Data Set Successfully Cleaned! (%d rows in, %d rows out)", stats.RowsIn, stats.RowsOut)

	return stats, nil
}

func (p *Pipeline) runStage(s Stage, f *records.Frame, stats *RunStats) error {
	var err error
	switch s {
	case StageNormalizeCategory:
		stats.CategoriesRewritten, err = normalize.NormalizeCategories(f)
	case StageImputeLocation:
		stats.LocationsImputed, err = normalize.ImputeLocations(f)
	case StageNormalizeLocation:
		stats.LocationsRewritten, err = normalize.NormalizeLocations(f)
	case StageAddMonth:
		err = AddMonth(f)
	case StageAddHour:
		err = AddHour(f)
	case StageFilterCommunity:
		stats.RowsDropped, err = DropMissingCommunity(f)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownStage, s)
	}
	return err
}

func (p *Pipeline) runs(s Stage) bool {
	for _, x := range p.stages {
		if x == s {
			return true
		}
	}
	return false
}

// Clean runs the stages enabled in flags over f. It is the entry point for
// callers that only toggle stages.
func Clean(f *records.Frame, flags Flags) (*RunStats, error) {
	return NewPipeline(flags).Run(f)
}
