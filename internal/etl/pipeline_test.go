package etl

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimeprep/internal/debug"
	"github.com/crimeprep/internal/records"
)

var allColumns = []string{
	records.ColPrimaryType,
	records.ColLocation,
	records.ColDate,
	records.ColCommunityName,
}

func at(s string) *time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func sampleFrame() *records.Frame {
	f := records.NewFrame(allColumns...)
	f.Append(
		&records.Incident{
			PrimaryType:   records.Str("CRIM SEXUAL ASSAULT"),
			Date:          at("2020-05-14T03:00"),
			CommunityName: records.Str("Loop"),
		},
		&records.Incident{
			PrimaryType:         records.Str("THEFT"),
			LocationDescription: records.Str("CTA BUS STOP"),
			Date:                at("2019-12-01T18:30"),
		},
		&records.Incident{
			PrimaryType:   records.Str("THEFT"),
			Date:          at("2021-07-04T12:00"),
			CommunityName: records.Str("Austin"),
		},
		&records.Incident{
			PrimaryType:         records.Str("NARCOTICS"),
			LocationDescription: records.Str("BOWLING ALLEY"),
			Date:                at("2021-01-09T00:15"),
			CommunityName:       records.Str("Uptown"),
		},
	)
	return f
}

func TestCleanScenario(t *testing.T) {
	f := sampleFrame()

	stats, err := Clean(f, DefaultFlags())
	require.NoError(t, err)

	require.Equal(t, 3, f.Len())
	assert.Equal(t, 4, stats.RowsIn)
	assert.Equal(t, 3, stats.RowsOut)
	assert.Equal(t, 1, stats.RowsDropped)
	assert.Equal(t, 1, stats.CategoriesRewritten)
	assert.Equal(t, 2, stats.LocationsImputed)
	assert.Equal(t, AllStages(), stats.Stages)

	first := f.Rows[0]
	assert.Equal(t, "CRIMINAL SEXUAL ASSAULT", *first.PrimaryType)
	assert.Equal(t, "RESIDENCE", *first.LocationDescription)
	assert.Equal(t, 5, *first.Month)
	assert.Equal(t, 3, *first.Hour)

	theft := f.Rows[1]
	assert.Equal(t, "STREET", *theft.LocationDescription)
	assert.Equal(t, 7, *theft.Month)
	assert.Equal(t, 12, *theft.Hour)

	late := f.Rows[2]
	assert.Equal(t, "STORE", *late.LocationDescription)
	assert.Nil(t, late.Hour, "hour 0 is outside the 1-12 domain")

	for i, r := range f.Rows {
		assert.Equal(t, i, r.Index)
		assert.NotNil(t, r.CommunityName)
	}
	assert.True(t, f.HasColumn(records.ColMonth))
	assert.True(t, f.HasColumn(records.ColHour))
}

func TestCleanIsIdempotent(t *testing.T) {
	f := sampleFrame()
	_, err := Clean(f, DefaultFlags())
	require.NoError(t, err)
	first := f.Maps()

	stats, err := Clean(f, DefaultFlags())
	require.NoError(t, err)

	assert.Equal(t, first, f.Maps())
	assert.Zero(t, stats.CategoriesRewritten)
	assert.Zero(t, stats.LocationsImputed)
	assert.Zero(t, stats.LocationsRewritten)
	assert.Zero(t, stats.RowsDropped)
}

func TestCleanWithStagesDisabled(t *testing.T) {
	f := sampleFrame()

	_, err := Clean(f, Flags{NormalizeLocation: true})
	require.NoError(t, err)

	assert.Equal(t, 4, f.Len(), "filter disabled")
	assert.Equal(t, "CRIM SEXUAL ASSAULT", *f.Rows[0].PrimaryType)
	assert.Nil(t, f.Rows[0].LocationDescription)
	assert.Equal(t, "CTA", *f.Rows[1].LocationDescription)
	assert.False(t, f.HasColumn(records.ColMonth))
}

func TestImputeWithoutCategoryNormalization(t *testing.T) {
	f := sampleFrame()

	_, err := Clean(f, Flags{ImputeLocation: true})
	require.NoError(t, err)

	assert.Nil(t, f.Rows[0].LocationDescription, "raw CRIM SEXUAL ASSAULT matches no rule")
	assert.Equal(t, "STREET", *f.Rows[2].LocationDescription)
}

func TestRunPropagatesMissingColumn(t *testing.T) {
	f := records.NewFrame(records.ColPrimaryType, records.ColDate)
	f.Append(&records.Incident{PrimaryType: records.Str("THEFT")})

	_, err := Clean(f, DefaultFlags())
	require.Error(t, err)
	assert.True(t, errors.Is(err, records.ErrMissingColumn))
	assert.Contains(t, err.Error(), string(StageImputeLocation))
	assert.Equal(t, -1, indexOfColumn(f, records.ColMonth), "later stages must not run")
}

func TestRunPropagatesTypeMismatch(t *testing.T) {
	f := records.NewFrame(records.ColDate)
	f.AddColumn(records.ColDate, records.KindString)

	_, err := Clean(f, Flags{AddMonth: true})
	assert.True(t, errors.Is(err, records.ErrNotTimestamp))
}

func indexOfColumn(f *records.Frame, name string) int {
	for i, c := range f.Columns() {
		if c == name {
			return i
		}
	}
	return -1
}

func TestAddHourDomain(t *testing.T) {
	tests := []struct {
		hour int
		want *int
	}{
		{0, nil},
		{1, records.Int(1)},
		{11, records.Int(11)},
		{12, records.Int(12)},
		{13, nil},
		{23, nil},
	}

	for _, tt := range tests {
		f := records.NewFrame(records.ColDate)
		d := time.Date(2020, 1, 1, tt.hour, 0, 0, 0, time.UTC)
		f.Append(&records.Incident{Date: &d}, &records.Incident{})

		require.NoError(t, AddHour(f))
		assert.Equal(t, tt.want, f.Rows[0].Hour, "hour %d", tt.hour)
		assert.Nil(t, f.Rows[1].Hour, "null date")
	}
}

func TestAddMonthCoversYear(t *testing.T) {
	f := records.NewFrame(records.ColDate)
	for m := 1; m <= 12; m++ {
		d := time.Date(2020, time.Month(m), 15, 0, 0, 0, 0, time.UTC)
		f.Append(&records.Incident{Date: &d})
	}

	require.NoError(t, AddMonth(f))
	for i, r := range f.Rows {
		assert.Equal(t, i+1, *r.Month)
	}
}

func TestDropMissingCommunityIdempotent(t *testing.T) {
	f := sampleFrame()

	removed, err := DropMissingCommunity(f)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = DropMissingCommunity(f)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestPipelineFromStages(t *testing.T) {
	tests := []struct {
		name    string
		stages  []Stage
		wantErr error
	}{
		{"all", AllStages(), nil},
		{"subset", []Stage{StageNormalizeCategory, StageNormalizeLocation}, nil},
		{"empty", nil, nil},
		{"imputer before normalizer", []Stage{StageImputeLocation, StageNormalizeCategory}, ErrStageOrder},
		{"imputer after location", []Stage{StageNormalizeLocation, StageImputeLocation}, ErrStageOrder},
		{"duplicate", []Stage{StageAddMonth, StageAddMonth}, ErrDuplicateStage},
		{"unknown", []Stage{"shuffle"}, ErrUnknownStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PipelineFromStages(tt.stages, false)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, p.Stages(), len(tt.stages))
		})
	}
}

func TestParseStages(t *testing.T) {
	stages, err := ParseStages([]string{"normalize-category", "add-hour"})
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageNormalizeCategory, StageAddHour}, stages)

	_, err = ParseStages([]string{"add-hour", "add-month"})
	assert.True(t, errors.Is(err, ErrStageOrder))

	_, err = ParseStages([]string{"nope"})
	assert.True(t, errors.Is(err, ErrUnknownStage))
}

func TestFlagsRoundTrip(t *testing.T) {
	stages := []Stage{StageImputeLocation, StageAddHour}
	fl := FlagsFor(stages, true)

	assert.Equal(t, stages, fl.Stages())
	assert.True(t, fl.Verbose)
	assert.Empty(t, Flags{}.Stages())
	assert.Equal(t, AllStages(), DefaultFlags().Stages())
}

func TestVerboseProgress(t *testing.T) {
	var buf bytes.Buffer
	debug.SetOutput(&buf)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	t.Cleanup(func() { debug.SetOutput(os.Stderr) })

	flags := DefaultFlags()
	_, err := Clean(sampleFrame(), flags)
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "quiet unless verbose")

	flags.Verbose = true
	_, err = Clean(sampleFrame(), flags)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "=== DEBUG START ===")
	assert.Contains(t, buf.String(), "=== DEBUG END ===")
	assert.Contains(t, buf.String(), "Cleaning Started")
	assert.Contains(t, buf.String(), "Successfully Imputed Location")
	assert.Contains(t, buf.String(), "Successfully Cleaned Community")
}
