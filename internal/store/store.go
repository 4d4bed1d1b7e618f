// Package store provides the GORM-backed read layer the digest pipeline
// aggregates over.
package store

import (
	"context"
	"fmt"

	"github.com/agrinote/agrinote/internal/digest"
	"github.com/agrinote/agrinote/internal/models"
	"gorm.io/gorm"
)

// Store implements digest.Store against the relational schema. All queries
// are read-only and scoped by (organization, date).
type Store struct {
	db *gorm.DB
}

// New creates a Store over an initialized GORM connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DiaryTotals counts matching diaries and sums their durations, with null
// durations contributing 0 hours but still counting as entries.
func (s *Store) DiaryTotals(ctx context.Context, orgID uint, date string) (int, float64, error) {
	var row struct {
		Count int
		Hours float64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Diary{}).
		Select("COUNT(*) AS count, COALESCE(SUM(COALESCE(duration_hours, 0)), 0) AS hours").
		Where("organization_id = ? AND date = ?", orgID, date).
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query diary totals: %w", err)
	}
	return row.Count, row.Hours, nil
}

// WorkTypeTotals groups matching diaries by work type, descending count.
// An empty-string work type is normalized into the null bucket so the
// formatter sees exactly one "unclassified" group.
func (s *Store) WorkTypeTotals(ctx context.Context, orgID uint, date string) ([]digest.WorkTypeStat, error) {
	var rows []struct {
		WorkType      *string
		Count         int
		TotalDuration float64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Diary{}).
		Select("NULLIF(work_type, '') AS work_type, COUNT(*) AS count, COALESCE(SUM(COALESCE(duration_hours, 0)), 0) AS total_duration").
		Where("organization_id = ? AND date = ?", orgID, date).
		Group("NULLIF(work_type, '')").
		Order("count DESC, work_type ASC NULLS LAST").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query work type totals: %w", err)
	}

	stats := make([]digest.WorkTypeStat, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, digest.WorkTypeStat{
			WorkType:      r.WorkType,
			Count:         r.Count,
			TotalDuration: r.TotalDuration,
		})
	}
	return stats, nil
}

// ThingTotals joins matching diaries through diary_things to things and sums
// duration per thing name, descending duration. Diaries with no thing link
// simply do not appear here.
func (s *Store) ThingTotals(ctx context.Context, orgID uint, date string) ([]digest.ThingStat, error) {
	var rows []struct {
		Name          string
		TotalDuration float64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Diary{}).
		Select("things.name AS name, COALESCE(SUM(COALESCE(diaries.duration_hours, 0)), 0) AS total_duration").
		Joins("JOIN diary_things ON diary_things.diary_id = diaries.id").
		Joins("JOIN things ON things.id = diary_things.thing_id AND things.deleted_at IS NULL").
		Where("diaries.organization_id = ? AND diaries.date = ?", orgID, date).
		Group("things.name").
		Order("total_duration DESC, name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query thing totals: %w", err)
	}

	stats := make([]digest.ThingStat, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, digest.ThingStat{Name: r.Name, TotalDuration: r.TotalDuration})
	}
	return stats, nil
}

// DistinctThingCount counts distinct things referenced by any matching
// diary. Soft-deleted things are excluded, matching ThingTotals, so the
// summary line's field count never exceeds what the breakdown shows.
func (s *Store) DistinctThingCount(ctx context.Context, orgID uint, date string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Diary{}).
		Joins("JOIN diary_things ON diary_things.diary_id = diaries.id").
		Joins("JOIN things ON things.id = diary_things.thing_id AND things.deleted_at IS NULL").
		Where("diaries.organization_id = ? AND diaries.date = ?", orgID, date).
		Distinct("diary_things.thing_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct things: %w", err)
	}
	return int(count), nil
}

// RecentEntries returns matching diaries most recent first, with author names
// and linked thing names resolved.
func (s *Store) RecentEntries(ctx context.Context, orgID uint, date string) ([]digest.Entry, error) {
	var diaries []models.Diary
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Things").
		Where("organization_id = ? AND date = ?", orgID, date).
		Order("created_at DESC").
		Find(&diaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent diaries: %w", err)
	}

	entries := make([]digest.Entry, 0, len(diaries))
	for _, d := range diaries {
		entry := digest.Entry{
			ID:            d.ID,
			Title:         d.Title,
			WorkType:      d.WorkType,
			DurationHours: d.DurationHours,
			CreatedAt:     d.CreatedAt,
		}
		if d.Author != nil {
			name := d.Author.Name
			entry.AuthorName = &name
		}
		for _, thing := range d.Things {
			entry.ThingNames = append(entry.ThingNames, thing.Name)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
