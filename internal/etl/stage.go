package etl

import (
	"errors"
	"fmt"
)

// Stage names one cleaning step.
type Stage string

// Stages in the only order they may run. The location imputer reads canonical
// categories and its defaults must still pass through location normalization.
const (
	StageNormalizeCategory Stage = "normalize-category"
	StageImputeLocation    Stage = "impute-location"
	StageNormalizeLocation Stage = "normalize-location"
	StageAddMonth          Stage = "add-month"
	StageAddHour           Stage = "add-hour"
	StageFilterCommunity   Stage = "filter-community"
)

// Stage list errors.
var (
	ErrUnknownStage   = errors.New("unknown stage")
	ErrDuplicateStage = errors.New("stage listed more than once")
	ErrStageOrder     = errors.New("stage out of order")
)

var stageOrder = []Stage{
	StageNormalizeCategory,
	StageImputeLocation,
	StageNormalizeLocation,
	StageAddMonth,
	StageAddHour,
	StageFilterCommunity,
}

var stageRank = func() map[Stage]int {
	m := make(map[Stage]int, len(stageOrder))
	for i, s := range stageOrder {
		m[s] = i
	}
	return m
}()

var stageMessages = map[Stage]string{
	StageNormalizeCategory: "Successfully Cleaned Primary Type",
	StageImputeLocation:    "Successfully Imputed Location",
	StageNormalizeLocation: "Successfully Cleaned Location",
	StageAddMonth:          "Successfully Added Month Column",
	StageAddHour:           "Successfully Added Hour Column",
	StageFilterCommunity:   "Successfully Cleaned Community",
}

// AllStages returns every stage in run order.
func AllStages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ParseStage resolves a stage name.
func ParseStage(name string) (Stage, error) {
	s := Stage(name)
	if _, ok := stageRank[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
	return s, nil
}

// ParseStages resolves a list of stage names and checks their order.
func ParseStages(names []string) ([]Stage, error) {
	stages := make([]Stage, 0, len(names))
	for _, n := range names {
		s, err := ParseStage(n)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	if err := checkOrder(stages); err != nil {
		return nil, err
	}
	return stages, nil
}

func checkOrder(stages []Stage) error {
	last := -1
	seen := make(map[Stage]bool, len(stages))
	for _, s := range stages {
		rank, ok := stageRank[s]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownStage, s)
		}
		if seen[s] {
			return fmt.Errorf("%w: %s", ErrDuplicateStage, s)
		}
		if rank < last {
			return fmt.Errorf("%w: %s must run before %s", ErrStageOrder, s, stageOrder[last])
		}
		seen[s] = true
		last = rank
	}
	return nil
}

// Flags toggles each stage individually. The zero value disables everything;
// DefaultFlags enables every stage.
type Flags struct {
	NormalizeCategory bool `json:"normalize_category" yaml:"normalize_category"`
	ImputeLocation    bool `json:"impute_location" yaml:"impute_location"`
	NormalizeLocation bool `json:"normalize_location" yaml:"normalize_location"`
	AddMonth          bool `json:"add_month" yaml:"add_month"`
	AddHour           bool `json:"add_hour" yaml:"add_hour"`
	FilterCommunity   bool `json:"filter_community" yaml:"filter_community"`
	Verbose           bool `json:"verbose" yaml:"verbose"`
}

// DefaultFlags enables every stage, quietly.
func DefaultFlags() Flags {
	return Flags{
		NormalizeCategory: true,
		ImputeLocation:    true,
		NormalizeLocation: true,
		AddMonth:          true,
		AddHour:           true,
		FilterCommunity:   true,
	}
}

// Stages lists the enabled stages in run order.
func (fl Flags) Stages() []Stage {
	enabled := map[Stage]bool{
		StageNormalizeCategory: fl.NormalizeCategory,
		StageImputeLocation:    fl.ImputeLocation,
		StageNormalizeLocation: fl.NormalizeLocation,
		StageAddMonth:          fl.AddMonth,
		StageAddHour:           fl.AddHour,
		StageFilterCommunity:   fl.FilterCommunity,
	}
	var out []Stage
	for _, s := range stageOrder {
		if enabled[s] {
			out = append(out, s)
		}
	}
	return out
}

// FlagsFor returns the flags that enable exactly the given stages.
func FlagsFor(stages []Stage, verbose bool) Flags {
	fl := Flags{Verbose: verbose}
	for _, s := range stages {
		switch s {
		case StageNormalizeCategory:
			fl.NormalizeCategory = true
		case StageImputeLocation:
			fl.ImputeLocation = true
		case StageNormalizeLocation:
			fl.NormalizeLocation = true
		case StageAddMonth:
			fl.AddMonth = true
		case StageAddHour:
			fl.AddHour = true
		case StageFilterCommunity:
			fl.FilterCommunity = true
		}
	}
	return fl
}
