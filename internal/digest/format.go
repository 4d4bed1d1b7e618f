package digest

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Presentation literals. Sentinel labels for absent source fields live here,
// not in the aggregation data model.
const (
	labelUnclassified = "Unclassified"
	labelNoThing      = "No field"
	labelGenericEntry = "Work record"

	footerText = "AgriNote daily digest"

	// Embed accent color, a leafy green.
	digestColor = 0x43A047

	// The details section shows at most this many recent entries.
	maxDetailEntries = 5
)

// Options carries the presentation inputs to Format.
type Options struct {
	// BaseURL, when set, attaches a deep link to the dashboard filtered by
	// the digest date.
	BaseURL string
	// Location is the organization's fixed timezone for time-of-day
	// rendering. Nil means UTC.
	Location *time.Location
}

// Format renders a DigestData into an outbound Payload. Pure and
// deterministic: no I/O, no clock reads.
func Format(data DigestData, opts Options) Payload {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	day, dayErr := time.ParseInLocation("2006-01-02", data.Date, loc)

	title := fmt.Sprintf("Daily Field Report — %s", data.Date)
	if dayErr == nil {
		title = fmt.Sprintf("Daily Field Report — %s (%s)", data.Date, day.Format("Mon"))
	}

	p := Payload{
		Title:     title,
		Color:     digestColor,
		Timestamp: day,
		Description: fmt.Sprintf("Entries: %d / Total: %s / Fields: %d",
			data.TotalEntries, FormatDuration(data.TotalDuration), data.TotalThings),
		Footer: footerText,
	}

	if len(data.WorkTypes) > 0 {
		p.Sections = append(p.Sections, Section{
			Name:  "Work types",
			Value: renderWorkTypes(data.WorkTypes),
		})
	}

	// A single-referenced-field breakdown repeats the summary line, so it is
	// only shown once there are at least two fields to compare.
	if len(data.Things) > 1 {
		p.Sections = append(p.Sections, Section{
			Name:  "Field breakdown",
			Value: renderThings(data.Things),
		})
	}

	if len(data.Recent) > 0 {
		p.Sections = append(p.Sections, Section{
			Name:  "Recent entries",
			Value: renderRecent(data.Recent, loc),
		})
	}

	if opts.BaseURL != "" {
		p.URL = fmt.Sprintf("%s/diaries?date=%s", strings.TrimRight(opts.BaseURL, "/"), data.Date)
	}

	return p
}

func renderWorkTypes(stats []WorkTypeStat) string {
	lines := make([]string, 0, len(stats))
	for _, s := range stats {
		name := labelUnclassified
		if s.WorkType != nil {
			name = *s.WorkType
		}
		lines = append(lines, fmt.Sprintf("%s %s ×%d (%s)",
			iconFor(s.WorkType), name, s.Count, FormatDuration(s.TotalDuration)))
	}
	return strings.Join(lines, "\n")
}

func renderThings(stats []ThingStat) string {
	lines := make([]string, 0, len(stats))
	for _, s := range stats {
		lines = append(lines, fmt.Sprintf("%s: %s", s.Name, FormatDuration(s.TotalDuration)))
	}
	return strings.Join(lines, "\n")
}

func renderRecent(entries []Entry, loc *time.Location) string {
	if len(entries) > maxDetailEntries {
		entries = entries[:maxDetailEntries]
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		things := labelNoThing
		if len(e.ThingNames) > 0 {
			things = strings.Join(e.ThingNames, ", ")
		}

		label := labelGenericEntry
		switch {
		case e.Title != nil && *e.Title != "":
			label = *e.Title
		case e.WorkType != nil && *e.WorkType != "":
			label = *e.WorkType
		}

		lines = append(lines, fmt.Sprintf("%s %s %s %s",
			e.CreatedAt.In(loc).Format("15:04"), things, iconFor(e.WorkType), label))
	}
	return strings.Join(lines, "\n")
}

// FormatDuration renders a non-negative duration in hours as a compact
// human-readable string: "0 h", "2 h", "45 m", "1 h 15 m". Minutes are the
// fractional part rounded to the nearest integer; when rounding reaches 60
// they roll into an additional whole hour.
func FormatDuration(hours float64) string {
	whole := int(math.Floor(hours))
	minutes := int(math.Round((hours - math.Floor(hours)) * 60))
	if minutes == 60 {
		whole++
		minutes = 0
	}

	switch {
	case whole == 0 && minutes == 0:
		return "0 h"
	case minutes == 0:
		return fmt.Sprintf("%d h", whole)
	case whole == 0:
		return fmt.Sprintf("%d m", minutes)
	default:
		return fmt.Sprintf("%d h %d m", whole, minutes)
	}
}
