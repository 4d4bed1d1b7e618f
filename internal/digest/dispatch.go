package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Dispatcher orchestrates the whole pipeline for one organization: aggregate,
// format, then deliver to every eligible channel concurrently with isolated
// failure domains.
type Dispatcher struct {
	aggregator *Aggregator
	vault      Decrypter
	sender     Sender
	baseURL    string
	logger     *slog.Logger
}

// NewDispatcher wires a Dispatcher. baseURL may be empty, in which case the
// payload carries no deep link.
func NewDispatcher(store Store, vault Decrypter, sender Sender, baseURL string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		aggregator: NewAggregator(store),
		vault:      vault,
		sender:     sender,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Dispatch runs the digest pipeline for (org, date) against the given channel
// list and reduces the per-channel outcomes into one result. It always
// returns a DispatchResult describing what happened and never panics or
// propagates an error: an aggregation failure yields a fully-failed result
// with no delivery attempted, and a single channel's decrypt or delivery
// failure counts as exactly one failure without affecting its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, org OrgInfo, channels []Channel, date string) DispatchResult {
	data, err := d.aggregator.Aggregate(ctx, org.ID, date)
	if err != nil {
		d.logger.Error("digest aggregation failed",
			"org_id", org.ID,
			"date", date,
			"error", err.Error(),
		)
		return DispatchResult{
			OverallSuccess: false,
			SuccessCount:   0,
			FailureCount:   len(channels),
			Summary:        fmt.Sprintf("digest for %s failed before delivery", date),
			ErrorDetail:    err.Error(),
		}
	}

	payload := Format(data, Options{BaseURL: d.baseURL, Location: org.Location})

	if len(channels) == 0 {
		return DispatchResult{
			OverallSuccess: true,
			Summary:        fmt.Sprintf("digest for %s: no channels to deliver to", date),
		}
	}

	// Settle-all fan-out: every attempt runs to completion and reports its
	// outcome; one failing channel never cancels or blocks a sibling.
	results := make(chan error, len(channels))
	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			results <- d.attempt(ctx, ch, payload)
		}(ch)
	}
	wg.Wait()
	close(results)

	var failures []string
	success := 0
	for err := range results {
		if err != nil {
			failures = append(failures, err.Error())
			continue
		}
		success++
	}

	result := DispatchResult{
		OverallSuccess: len(failures) == 0,
		SuccessCount:   success,
		FailureCount:   len(failures),
		Summary: fmt.Sprintf("digest for %s delivered to %d/%d channels",
			date, success, len(channels)),
		ErrorDetail: strings.Join(failures, "; "),
	}

	d.logger.Info("digest dispatch finished",
		"org_id", org.ID,
		"date", date,
		"success_count", result.SuccessCount,
		"failure_count", result.FailureCount,
	)

	return result
}

// attempt runs one channel's decrypt-then-deliver sequence. The plaintext
// webhook URL exists only inside this call and is never logged.
func (d *Dispatcher) attempt(ctx context.Context, ch Channel, payload Payload) error {
	webhookURL, err := d.vault.Decrypt(ctx, ch.EncryptedURL)
	if err != nil {
		d.logger.Warn("channel credential decrypt failed",
			"channel_id", ch.ID,
			"channel", ch.Name,
			"error", err.Error(),
		)
		return fmt.Errorf("channel %q: credential: %w", ch.Name, err)
	}

	if err := d.sender.Send(ctx, webhookURL, payload); err != nil {
		d.logger.Warn("channel delivery failed",
			"channel_id", ch.ID,
			"channel", ch.Name,
			"error", err.Error(),
		)
		return fmt.Errorf("channel %q: deliver: %w", ch.Name, err)
	}

	return nil
}
