package main

import (
	"fmt"
	"runtime"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Session owns one persistent browser context for the lifetime of a CLI
// command. Every component borrows its Driver; nothing but Close tears it
// down.
type Session struct {
	config   *Config
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
}

func NewSession(config *Config) *Session {
	return &Session{config: config}
}

func (s *Session) Start() error {
	fmt.Println("🌐 Launching browser...")

	// Disable leakless mode on Windows to prevent deadlock
	// See: https://github.com/go-rod/rod/issues/853
	useLeakless := runtime.GOOS != "windows"

	s.launcher = launcher.New().
		Leakless(useLeakless).
		Headless(s.config.Headless).
		UserDataDir(s.config.BrowserProfileDir())

	// Prefer a system browser to avoid the Chromium download.
	if chromePath, ok := launcher.LookPath(); ok {
		s.launcher = s.launcher.Bin(chromePath)
		s.config.debugLog("using system browser at %s", chromePath)
	}

	url, err := s.launcher.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	s.browser = rod.New().ControlURL(url)
	if err := s.browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	s.page, err = stealth.Page(s.browser)
	if err != nil {
		return fmt.Errorf("failed to create stealth page: %w", err)
	}
	s.config.debugLog("stealth page created")

	if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: browserUserAgent,
	}); err != nil {
		s.config.debugLog("failed to set user agent: %v", err)
	}

	if err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.config.ViewportWidth,
		Height:            s.config.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		s.config.debugLog("failed to set viewport: %v", err)
	}

	fmt.Println("✓ Browser ready")
	return nil
}

// Alive reports whether the browser process still answers.
func (s *Session) Alive() bool {
	if s.browser == nil {
		return false
	}
	_, err := s.browser.Version()
	return err == nil
}

func (s *Session) Close() {
	if s.page != nil {
		s.page.Close()
	}
	if s.browser != nil {
		s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
}

// Driver exposes the session's page through the automation capability
// surface.
func (s *Session) Driver() Driver {
	return &rodDriver{page: s.page}
}
