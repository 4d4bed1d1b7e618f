package digest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Aggregator reads raw diary data for one organization and one calendar date
// and produces a normalized DigestData.
type Aggregator struct {
	store Store
}

// NewAggregator creates an Aggregator over the given store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Aggregate builds the digest for (orgID, date). An organization with zero
// matching diaries yields a DigestData with all counts at zero and all lists
// empty; that is the normal baseline, not an error. A store read failure
// propagates wrapped — retries, if wanted, belong to the caller, since a
// digest is idempotent and safely re-run.
func (a *Aggregator) Aggregate(ctx context.Context, orgID uint, date string) (DigestData, error) {
	data := DigestData{
		Date:      date,
		WorkTypes: []WorkTypeStat{},
		Things:    []ThingStat{},
		Recent:    []Entry{},
	}

	// The five reads are independent; run them concurrently and combine
	// only after all have completed.
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, hours, err := a.store.DiaryTotals(ctx, orgID, date)
		if err != nil {
			return fmt.Errorf("diary totals: %w", err)
		}
		data.TotalEntries = count
		data.TotalDuration = hours
		return nil
	})

	g.Go(func() error {
		stats, err := a.store.WorkTypeTotals(ctx, orgID, date)
		if err != nil {
			return fmt.Errorf("work type totals: %w", err)
		}
		if stats != nil {
			data.WorkTypes = stats
		}
		return nil
	})

	g.Go(func() error {
		stats, err := a.store.ThingTotals(ctx, orgID, date)
		if err != nil {
			return fmt.Errorf("thing totals: %w", err)
		}
		if stats != nil {
			data.Things = stats
		}
		return nil
	})

	g.Go(func() error {
		n, err := a.store.DistinctThingCount(ctx, orgID, date)
		if err != nil {
			return fmt.Errorf("distinct thing count: %w", err)
		}
		data.TotalThings = n
		return nil
	})

	g.Go(func() error {
		entries, err := a.store.RecentEntries(ctx, orgID, date)
		if err != nil {
			return fmt.Errorf("recent entries: %w", err)
		}
		if entries != nil {
			data.Recent = entries
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return DigestData{}, fmt.Errorf("aggregate digest for org %d on %s: %w", orgID, date, err)
	}

	return data, nil
}
