// Package digest implements the daily digest pipeline: aggregation of one
// organization's diaries for one calendar date, formatting into an outbound
// notification payload, and settle-all dispatch to the organization's
// channels.
package digest

import (
	"context"
	"time"
)

// DigestData is the normalized per-organization, per-date summary produced by
// the Aggregator. It is constructed, consumed, and discarded within a single
// pipeline run. Optional source fields stay nil here; presentation fallbacks
// belong to Format.
type DigestData struct {
	Date          string // YYYY-MM-DD
	TotalEntries  int
	TotalDuration float64 // hours; nil source durations sum as 0
	TotalThings   int     // distinct things referenced by any matching diary
	WorkTypes     []WorkTypeStat
	Things        []ThingStat
	Recent        []Entry
}

// WorkTypeStat is one work-type bucket. A nil WorkType is the bucket for
// diaries recorded without one.
type WorkTypeStat struct {
	WorkType      *string
	Count         int
	TotalDuration float64
}

// ThingStat is one referenced thing's duration share.
type ThingStat struct {
	Name          string
	TotalDuration float64
}

// Entry is one diary record as the digest sees it, most recent first.
type Entry struct {
	ID            uint
	Title         *string
	WorkType      *string
	DurationHours *float64
	AuthorName    *string
	ThingNames    []string
	CreatedAt     time.Time
}

// Store is the read-only view of the data layer the Aggregator consumes.
// Every query is scoped by (organization, date); implementations decide how
// the grouping and joining happen.
type Store interface {
	// DiaryTotals returns the matching diary count and the duration sum,
	// with null durations counted as 0 hours.
	DiaryTotals(ctx context.Context, orgID uint, date string) (count int, hours float64, err error)

	// WorkTypeTotals groups matching diaries by work type, descending count.
	WorkTypeTotals(ctx context.Context, orgID uint, date string) ([]WorkTypeStat, error)

	// ThingTotals joins matching diaries through their thing links and sums
	// duration per thing name, descending duration.
	ThingTotals(ctx context.Context, orgID uint, date string) ([]ThingStat, error)

	// DistinctThingCount counts distinct things referenced by any matching
	// diary.
	DistinctThingCount(ctx context.Context, orgID uint, date string) (int, error)

	// RecentEntries returns matching diaries ordered by creation time
	// descending, each with its author name and linked thing names resolved.
	RecentEntries(ctx context.Context, orgID uint, date string) ([]Entry, error)
}

// Payload is the outbound notification derived from a DigestData. It is a
// pure function of the digest plus presentation options and carries no
// organization identity and no secrets.
type Payload struct {
	Title        string
	Color        int
	Timestamp    time.Time
	Description  string
	Sections     []Section
	Footer       string
	URL          string
	ThumbnailURL string
}

// Section is one titled block of the payload.
type Section struct {
	Name   string
	Value  string
	Inline bool
}

// Channel is the dispatcher's view of a delivery destination. The URL stays
// encrypted until the moment of delivery.
type Channel struct {
	ID           uint
	Name         string
	EncryptedURL string
}

// OrgInfo carries the organization facts the pipeline needs: an id for
// scoping store reads and a location for time-of-day rendering.
type OrgInfo struct {
	ID       uint
	Name     string
	Location *time.Location
}

// DispatchResult summarizes one pipeline run. It is returned synchronously
// and never persisted here.
type DispatchResult struct {
	OverallSuccess bool
	SuccessCount   int
	FailureCount   int
	Summary        string
	ErrorDetail    string
}

// Decrypter recovers a channel's plaintext webhook URL just before delivery.
type Decrypter interface {
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// Sender delivers a payload to one destination URL. This is the seam test
// doubles substitute at.
type Sender interface {
	Send(ctx context.Context, webhookURL string, p Payload) error
}
