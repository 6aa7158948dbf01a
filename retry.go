package main

import (
	"fmt"
	"time"
)

// ClaimResult is the retry governor's output for one offer: every attempt in
// order, the last one authoritative. Immutable once produced.
type ClaimResult struct {
	Offer    Offer          `json:"offer"`
	Attempts []ClaimAttempt `json:"attempts"`
}

// Final returns the sealed terminal attempt, or a zero attempt when there
// are none. The governor always produces at least one, but results read back
// from a history file carry no such guarantee.
func (r ClaimResult) Final() ClaimAttempt {
	if len(r.Attempts) == 0 {
		return ClaimAttempt{}
	}
	return r.Attempts[len(r.Attempts)-1]
}

func (r ClaimResult) Status() Status {
	return r.Final().Status
}

// Title prefers the title the claim flow extracted over the catalog's.
func (r ClaimResult) Title() string {
	if t := r.Final().Title; t != "" {
		return t
	}
	if r.Offer.Title != "" {
		return r.Offer.Title
	}
	return titleFromURL(r.Offer.URL)
}

type attempter interface {
	Attempt(offer Offer, number int) ClaimAttempt
}

// ClaimWithRetry produces one final classification for an offer. Only error
// and unknown outcomes are retried, with a fixed delay: the failure source is
// the storefront's own UI state, so the delay exists to let transient
// glitches settle, not to back off a congested network. Every intermediate
// attempt is preserved for audit.
func ClaimWithRetry(c attempter, offer Offer, maxRetries int, retryDelay time.Duration) ClaimResult {
	result := ClaimResult{Offer: offer}
	for number := 1; ; number++ {
		attempt := c.Attempt(offer, number)
		result.Attempts = append(result.Attempts, attempt)
		if !attempt.Status.Retryable() || number > maxRetries {
			return result
		}
		fmt.Printf("  ↻ Retrying (%d/%d) in %s...\n", number, maxRetries, retryDelay)
		time.Sleep(retryDelay)
	}
}
