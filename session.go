package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

const urlFreeGames = storeBaseURL + "/en-US/free-games"

var urlLogin = "https://www.epicgames.com/id/login?lang=en-US&noHostRedirect=true&redirectUrl=" +
	url.QueryEscape(urlFreeGames)

// ErrLoginTimeout is returned when the login completion signal is not
// observed within the configured deadline. Hard failure, never retried.
var ErrLoginTimeout = errors.New("login timed out")

// SessionGate answers whether a browser session is authenticated and drives
// the login sequence when it is not.
type SessionGate struct {
	config *Config
	driver Driver
}

func NewSessionGate(config *Config, driver Driver) *SessionGate {
	return &SessionGate{config: config, driver: driver}
}

// IsAuthenticated navigates to the free-games page and reads the navigation
// bar's login flag. Any detection failure counts as not authenticated: an
// unauthenticated UI is the safe default.
func (g *SessionGate) IsAuthenticated() bool {
	sel := &g.config.Selectors
	if err := g.driver.Navigate(urlFreeGames); err != nil {
		g.config.debugLog("auth check navigation failed: %v", err)
		return false
	}
	flag, err := g.driver.Attribute(sel.Navigation, sel.LoggedInAttr, 10*time.Second)
	if err != nil {
		g.config.debugLog("auth flag not readable: %v", err)
		return false
	}
	return flag == "true"
}

// CurrentUser returns the authenticated user's display name, or "" when the
// session is not authenticated or detection fails.
func (g *SessionGate) CurrentUser() string {
	sel := &g.config.Selectors
	flag, err := g.driver.Attribute(sel.Navigation, sel.LoggedInAttr, 5*time.Second)
	if err != nil || flag != "true" {
		return ""
	}
	name, err := g.driver.Attribute(sel.Navigation, sel.DisplayNameAttr, 5*time.Second)
	if err != nil {
		return ""
	}
	return name
}

// Login drives the login page to completion: credential auto-fill (with an
// optional TOTP step) when credentials are configured, otherwise a long wait
// for the user to finish in the browser window. Both paths converge on
// navigation back to the free-games page.
func (g *SessionGate) Login() (string, error) {
	fmt.Println("🔑 Navigating to login...")
	if err := g.driver.Navigate(urlLogin); err != nil {
		return "", fmt.Errorf("failed to open login page: %w", err)
	}

	if g.config.Email != "" && g.config.Password != "" {
		g.autoFill()
	} else {
		fmt.Println()
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println("  Please log in in the browser window.")
		fmt.Println("  The program will continue automatically after login.")
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println()
	}

	if err := g.driver.WaitURLContains("/free-games", g.config.LoginTimeout()); err != nil {
		return "", fmt.Errorf("%w after %s", ErrLoginTimeout, g.config.LoginTimeout())
	}

	sel := &g.config.Selectors
	name, err := g.driver.Attribute(sel.Navigation, sel.DisplayNameAttr, 10*time.Second)
	if err != nil || name == "" {
		name = "unknown"
	}
	return name, nil
}

// autoFill submits the configured credentials. Best effort: on any failure
// the user can still complete the login manually within the deadline.
func (g *SessionGate) autoFill() {
	fmt.Println("Auto-filling credentials...")
	d := g.driver
	if err := d.Fill("#email", g.config.Email, 10*time.Second); err != nil {
		fmt.Printf("Auto-fill failed: %v\n", err)
		fmt.Println("Please log in manually in the browser window.")
		return
	}
	if err := d.Fill("#password", g.config.Password, 5*time.Second); err != nil {
		fmt.Printf("Auto-fill failed: %v\n", err)
		return
	}
	if err := d.Click(`button[type="submit"]`, 5*time.Second); err != nil {
		fmt.Printf("Could not submit login form: %v\n", err)
		return
	}
	if g.config.OTPKey != "" {
		g.submitOneTimePassword()
	}
}

// submitOneTimePassword fills the 2FA code derived from the shared secret.
// The MFA page not appearing is normal for accounts without 2FA prompts.
func (g *SessionGate) submitOneTimePassword() {
	d := g.driver
	if err := d.WaitURLContains("/id/login/mfa", 10*time.Second); err != nil {
		g.config.debugLog("no MFA step: %v", err)
		return
	}
	code, err := totp.GenerateCode(g.config.OTPKey, time.Now())
	if err != nil {
		fmt.Printf("Could not generate one-time password: %v\n", err)
		return
	}
	fmt.Println("Entering 2FA code...")
	if err := d.Fill(`input[name="code-input-0"]`, code, 5*time.Second); err != nil {
		g.config.debugLog("2FA input failed: %v", err)
		return
	}
	if err := d.Click(`button[type="submit"]`, 5*time.Second); err != nil {
		g.config.debugLog("2FA submit failed: %v", err)
	}
}
