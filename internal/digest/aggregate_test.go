package digest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store for pipeline tests. Zero value behaves like
// an organization with no diaries on the target date.
type fakeStore struct {
	count      int
	hours      float64
	workTypes  []WorkTypeStat
	things     []ThingStat
	thingCount int
	recent     []Entry
	err        error
}

func (f *fakeStore) DiaryTotals(context.Context, uint, string) (int, float64, error) {
	return f.count, f.hours, f.err
}

func (f *fakeStore) WorkTypeTotals(context.Context, uint, string) ([]WorkTypeStat, error) {
	return f.workTypes, f.err
}

func (f *fakeStore) ThingTotals(context.Context, uint, string) ([]ThingStat, error) {
	return f.things, f.err
}

func (f *fakeStore) DistinctThingCount(context.Context, uint, string) (int, error) {
	return f.thingCount, f.err
}

func (f *fakeStore) RecentEntries(context.Context, uint, string) ([]Entry, error) {
	return f.recent, f.err
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func TestAggregateZeroState(t *testing.T) {
	agg := NewAggregator(&fakeStore{})

	data, err := agg.Aggregate(context.Background(), 1, "2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, "2025-06-01", data.Date)
	assert.Zero(t, data.TotalEntries)
	assert.Zero(t, data.TotalDuration)
	assert.Zero(t, data.TotalThings)
	assert.NotNil(t, data.WorkTypes)
	assert.Empty(t, data.WorkTypes)
	assert.NotNil(t, data.Things)
	assert.Empty(t, data.Things)
	assert.NotNil(t, data.Recent)
	assert.Empty(t, data.Recent)
}

func TestAggregateSumInvariant(t *testing.T) {
	// Three diaries with non-null durations, each linked to exactly one
	// thing: the total must equal both breakdown sums, and the entry count
	// must equal the work-type counts.
	store := &fakeStore{
		count: 3,
		hours: 4.5,
		workTypes: []WorkTypeStat{
			{WorkType: strPtr("harvesting"), Count: 2, TotalDuration: 3.0},
			{WorkType: strPtr("watering"), Count: 1, TotalDuration: 1.5},
		},
		things: []ThingStat{
			{Name: "North field", TotalDuration: 3.0},
			{Name: "Greenhouse A", TotalDuration: 1.5},
		},
		thingCount: 2,
	}

	data, err := NewAggregator(store).Aggregate(context.Background(), 1, "2025-06-01")
	require.NoError(t, err)

	var workTypeDur, thingDur float64
	var workTypeCount int
	for _, s := range data.WorkTypes {
		workTypeDur += s.TotalDuration
		workTypeCount += s.Count
	}
	for _, s := range data.Things {
		thingDur += s.TotalDuration
	}

	assert.Equal(t, data.TotalDuration, workTypeDur)
	assert.Equal(t, data.TotalDuration, thingDur)
	assert.Equal(t, data.TotalEntries, workTypeCount)
}

func TestAggregateIdempotent(t *testing.T) {
	store := &fakeStore{
		count: 2,
		hours: 2.5,
		workTypes: []WorkTypeStat{
			{WorkType: nil, Count: 2, TotalDuration: 2.5},
		},
		thingCount: 1,
		things:     []ThingStat{{Name: "North field", TotalDuration: 2.5}},
		recent: []Entry{
			{ID: 7, Title: strPtr("Morning round"), DurationHours: f64Ptr(2.5),
				ThingNames: []string{"North field"},
				CreatedAt:  time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)},
		},
	}
	agg := NewAggregator(store)

	first, err := agg.Aggregate(context.Background(), 1, "2025-06-01")
	require.NoError(t, err)
	second, err := agg.Aggregate(context.Background(), 1, "2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregateStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	agg := NewAggregator(&fakeStore{err: storeErr})

	_, err := agg.Aggregate(context.Background(), 1, "2025-06-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
}
