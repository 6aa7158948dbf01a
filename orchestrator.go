package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClaimRun is one orchestrator run: a timestamped, ordered list of results.
type ClaimRun struct {
	ID      string        `json:"id"`
	Date    string        `json:"date"`
	Results []ClaimResult `json:"results"`
}

func NewClaimRun(results []ClaimResult) ClaimRun {
	return ClaimRun{
		ID:      uuid.NewString(),
		Date:    datetime(),
		Results: results,
	}
}

// Orchestrator discovers claimable offers on the free-games page and drives
// each through the retry-governed claim flow, strictly sequentially: the
// session's page is a single shared resource.
type Orchestrator struct {
	config  *Config
	driver  Driver
	claimer *Claimer
}

func NewOrchestrator(config *Config, driver Driver) *Orchestrator {
	return &Orchestrator{
		config:  config,
		driver:  driver,
		claimer: NewClaimer(config, driver),
	}
}

// ClaimAll claims every offer currently marked free on the page. The live
// page, not the catalog API, is the source of truth for what is claimable
// right now. Zero discovered offers is a normal outcome, not a failure.
func (o *Orchestrator) ClaimAll() ([]ClaimResult, error) {
	d := o.driver
	sel := &o.config.Selectors

	fmt.Println("Navigating to free games page...")
	if err := d.Navigate(urlFreeGames); err != nil {
		return nil, fmt.Errorf("failed to open free games page: %w", err)
	}

	if err := d.SetCookies(consentCookies()); err != nil {
		o.config.debugLog("failed to set consent cookies: %v", err)
	}

	if err := d.WaitText("span", sel.FreeOfferText, 15*time.Second); err != nil {
		fmt.Println("No free offers found on the page this week.")
		return nil, nil
	}

	hrefs, err := d.Links(sel.FreeOfferLink, sel.FreeOfferText)
	if err != nil {
		return nil, fmt.Errorf("failed to collect offer links: %w", err)
	}

	offers := make([]Offer, 0, len(hrefs))
	for _, href := range hrefs {
		if !strings.HasPrefix(href, "http") {
			href = storeBaseURL + href
		}
		offers = append(offers, Offer{ID: slugFromURL(href), URL: href})
	}
	fmt.Printf("Found %d free offer(s)\n", len(offers))

	results := make([]ClaimResult, 0, len(offers))
	for _, offer := range offers {
		results = append(results, ClaimWithRetry(o.claimer, offer, o.config.MaxRetries, o.config.RetryDelay()))
	}
	return results, nil
}

// consentCookies pre-answers the consent banner and the storefront age-gate
// prompt. Deterministic, non-secret values.
func consentCookies() []Cookie {
	return []Cookie{
		{
			Name:   "OptanonAlertBoxClosed",
			Value:  time.Now().Add(-5 * 24 * time.Hour).UTC().Format(time.RFC3339),
			Domain: ".epicgames.com",
			Path:   "/",
		},
		{
			Name:   "HasAcceptedAgeGates",
			Value:  "USK:9007199254740991,general:18,EPIC SUGGESTED RATING:18",
			Domain: "store.epicgames.com",
			Path:   "/",
		},
	}
}
