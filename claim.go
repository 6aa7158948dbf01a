package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Status is the terminal classification of one claim attempt.
type Status string

const (
	StatusClaimed          Status = "claimed"
	StatusAlreadyOwned     Status = "already_owned"
	StatusRequiresBaseGame Status = "requires_base_game"
	StatusRegionLocked     Status = "region_locked"
	StatusCaptchaBlocked   Status = "captcha_blocked"
	StatusDryrunSkipped    Status = "dryrun_skipped"
	StatusUnknown          Status = "unknown"
	StatusError            Status = "error"
)

// Retryable reports whether another attempt could plausibly change the
// outcome. Everything else is definitive or needs a human.
func (s Status) Retryable() bool {
	return s == StatusError || s == StatusUnknown
}

func (s Status) Icon() string {
	switch s {
	case StatusClaimed:
		return "🎮"
	case StatusAlreadyOwned:
		return "📦"
	case StatusDryrunSkipped:
		return "🏃"
	case StatusCaptchaBlocked:
		return "⚠️"
	case StatusUnknown:
		return "❓"
	default:
		return "❌"
	}
}

// Offer is one claimable catalog entry. Immutable once constructed.
type Offer struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	IsBundle    bool      `json:"isBundle"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
}

// ClaimAttempt is one execution of the claim flow against one offer. Sealed
// at its terminal state, never mutated after.
type ClaimAttempt struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Status     Status `json:"status"`
	Screenshot string `json:"screenshot,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// labelRule maps a purchase-control label fragment to the terminal status it
// implies. The table is evaluated in order; first match wins.
type labelRule struct {
	fragment string
	status   Status
}

var purchaseLabelRules = []labelRule{
	{"in library", StatusAlreadyOwned},
	{"requires base game", StatusRequiresBaseGame},
}

func classifyPurchaseLabel(label string) (Status, bool) {
	label = strings.ToLower(label)
	for _, rule := range purchaseLabelRules {
		if strings.Contains(label, rule.fragment) {
			return rule.status, true
		}
	}
	return "", false
}

// dialogWatch wraps a bounded background wait for a UI element that usually
// does not appear. Started fire-and-forget; its result is consulted at a
// defined join point instead of serializing the flow.
type dialogWatch struct {
	done   chan bool
	result bool
	got    bool
}

func startWatch(fn func() bool) *dialogWatch {
	w := &dialogWatch{done: make(chan bool, 1)}
	go func() { w.done <- fn() }()
	return w
}

// resolved polls the watch without blocking.
func (w *dialogWatch) resolved() bool {
	if w.got {
		return w.result
	}
	select {
	case v := <-w.done:
		w.got, w.result = true, v
		return v
	default:
		return false
	}
}

// wait blocks until the watch's own timeout settles it.
func (w *dialogWatch) wait() bool {
	if !w.got {
		w.result = <-w.done
		w.got = true
	}
	return w.result
}

var buyPrefix = regexp.MustCompile(`(?i)^buy\s+`)

// Claimer walks one offer through the purchase flow to a terminal
// classification.
type Claimer struct {
	config *Config
	driver Driver
}

func NewClaimer(config *Config, driver Driver) *Claimer {
	return &Claimer{config: config, driver: driver}
}

// Attempt runs one end-to-end pass of the claim flow. Failures never escape:
// any fault seals the attempt as error with a diagnostic screenshot attached.
func (c *Claimer) Attempt(offer Offer, number int) ClaimAttempt {
	attempt := ClaimAttempt{Number: number, Title: offer.Title, URL: offer.URL}
	status, err := c.run(offer, &attempt)
	if err != nil {
		fmt.Printf("  ❌ Claim failed: %v\n", err)
		attempt.Status = StatusError
		attempt.Detail = err.Error()
		attempt.Screenshot = c.capture("error")
	} else {
		attempt.Status = status
	}
	return attempt
}

func (c *Claimer) run(offer Offer, attempt *ClaimAttempt) (Status, error) {
	d := c.driver
	sel := &c.config.Selectors

	if err := d.Navigate(offer.URL); err != nil {
		return "", fmt.Errorf("failed to open offer page: %w", err)
	}

	isBundle := d.HasText("span", sel.BundleMarker)
	attempt.Title = c.extractTitle(offer, isBundle)
	if isBundle {
		fmt.Printf("\nProcessing: %s (bundle)\n", attempt.Title)
	} else {
		fmt.Printf("\nProcessing: %s\n", attempt.Title)
	}

	// The purchase control's label decides the first branch. Reading it at
	// the top of every attempt also makes retries safe: an order that
	// silently succeeded shows up here as "In Library".
	if err := d.WaitVisible(sel.PurchaseButton, 15*time.Second); err != nil {
		return "", fmt.Errorf("purchase button not found: %w", err)
	}
	label, err := d.Text(sel.PurchaseButton, c.config.Timeout())
	if err != nil {
		return "", fmt.Errorf("could not read purchase button: %w", err)
	}
	if status, ok := classifyPurchaseLabel(label); ok {
		fmt.Printf("  %s %s\n", status.Icon(), status)
		return status, nil
	}

	if d.HasText("button", "Continue") {
		c.passAgeGate()
	}

	if c.config.DryRun {
		fmt.Println("  🏃 Dry run - skipping actual purchase")
		return StatusDryrunSkipped, nil
	}

	fmt.Printf("  Clicking %q...\n", strings.TrimSpace(label))
	if err := d.Click(sel.PurchaseButton, c.config.Timeout()); err != nil {
		return "", fmt.Errorf("failed to click purchase button: %w", err)
	}

	// Secondary confirmations. Each is independently optional with its own
	// short timeout; none appearing is not an error.
	startWatch(func() bool {
		return d.ClickText("button", "Continue", 3*time.Second) == nil
	})
	startWatch(func() bool {
		return d.ClickText("button", "Yes, buy now", 3*time.Second) == nil
	})
	startWatch(c.acceptLicenseAgreement)
	if c.config.ParentalPIN != "" {
		startWatch(c.enterParentalPIN)
	}

	frame, err := d.Frame(sel.CheckoutFrame, 15*time.Second)
	if err != nil {
		return "", fmt.Errorf("checkout did not appear: %w", err)
	}

	if frame.HasText("body", sel.RegionLockText) {
		fmt.Println("  ❌ Unavailable in your region")
		return StatusRegionLocked, nil
	}

	// Challenge detection runs concurrently with placing the order; its
	// result is consulted after the click.
	challenge := startWatch(func() bool {
		return frame.WaitVisible(sel.ChallengeWidget, 3*time.Second) == nil
	})

	if err := frame.ClickText(sel.PlaceOrderButton, "Place Order", c.config.Timeout()); err != nil {
		return "", fmt.Errorf("failed to place order: %w", err)
	}

	// Some regions show an extra terms dialog after ordering.
	startWatch(func() bool {
		return frame.ClickText("button", "I Accept", 5*time.Second) == nil
	})

	if challenge.wait() {
		fmt.Println("  ⚠️ Challenge widget detected, manual intervention needed")
		attempt.Screenshot = c.capture("captcha")
		return StatusCaptchaBlocked, nil
	}

	if err := d.WaitText("body", sel.ConfirmationText, 30*time.Second); err != nil {
		attempt.Screenshot = c.capture("unknown")
		fmt.Printf("  ❓ Claim result unclear. Screenshot saved: %s\n", attempt.Screenshot)
		return StatusUnknown, nil
	}

	fmt.Println("  🎮 Successfully claimed!")
	return StatusClaimed, nil
}

// extractTitle reads the display title from the page. Bundles carry it in a
// "Buy <title>" label; single items in the main heading. Failure falls back
// to the offer's known title, then to the URL slug.
func (c *Claimer) extractTitle(offer Offer, isBundle bool) string {
	d := c.driver
	if isBundle {
		if label, err := d.TextMatch("span", "Buy ", 10*time.Second); err == nil {
			if title := strings.TrimSpace(buyPrefix.ReplaceAllString(strings.TrimSpace(label), "")); title != "" {
				return title
			}
		}
	} else {
		if heading, err := d.Text(c.config.Selectors.Heading, 10*time.Second); err == nil {
			if title := strings.TrimSpace(heading); title != "" {
				return title
			}
		}
	}
	if offer.Title != "" {
		return offer.Title
	}
	return titleFromURL(offer.URL)
}

// passAgeGate confirms the mature-content prompt, supplying the configured
// birth date when an age-select widget is present.
func (c *Claimer) passAgeGate() {
	d := c.driver
	sel := &c.config.Selectors
	fmt.Println("  Handling mature content / age gate...")
	if d.Has(sel.AgeSelect) {
		year, month, day := c.config.birthDateParts()
		c.pickDateOption(sel.MonthToggle, sel.MonthMenu, month)
		c.pickDateOption(sel.DayToggle, sel.DayMenu, day)
		c.pickDateOption(sel.YearToggle, sel.YearMenu, year)
	}
	if err := d.ClickText("button", "Continue", 5*time.Second); err != nil {
		c.config.debugLog("age gate continue failed: %v", err)
		return
	}
	time.Sleep(2 * time.Second)
}

func (c *Claimer) pickDateOption(toggle, menu, value string) {
	d := c.driver
	if err := d.Click(toggle, 2*time.Second); err != nil {
		c.config.debugLog("date toggle %s failed: %v", toggle, err)
		return
	}
	if err := d.ClickText(menu, value, 2*time.Second); err != nil {
		c.config.debugLog("date option %s in %s failed: %v", value, menu, err)
	}
}

func (c *Claimer) acceptLicenseAgreement() bool {
	d := c.driver
	sel := &c.config.Selectors
	if err := d.WaitVisible(sel.EULACheckbox, 3*time.Second); err != nil {
		return false
	}
	fmt.Println("  Accepting license agreement...")
	if err := d.Click(sel.EULACheckbox, 2*time.Second); err != nil {
		return false
	}
	return d.ClickText("button", "Accept", 2*time.Second) == nil
}

func (c *Claimer) enterParentalPIN() bool {
	d := c.driver
	sel := &c.config.Selectors
	if err := d.WaitVisible(sel.PINInput, 3*time.Second); err != nil {
		return false
	}
	fmt.Println("  Entering parental control PIN...")
	if err := d.Fill(sel.PINInput, c.config.ParentalPIN, 2*time.Second); err != nil {
		return false
	}
	return d.ClickText("button", "Continue", 2*time.Second) == nil
}

// capture writes a diagnostic screenshot and returns its path, or "" when the
// capture itself fails.
func (c *Claimer) capture(kind string) string {
	path := filepath.Join(c.config.ScreenshotsDir(), kind+"-"+filenamify(datetime())+".png")
	if err := c.driver.Screenshot(path); err != nil {
		c.config.debugLog("screenshot failed: %v", err)
		return ""
	}
	return path
}
