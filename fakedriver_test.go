package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var errTest = errors.New("simulated failure")

// fakeDriver is a scripted Driver for tests. Lookups are keyed by selector
// (and pattern where one applies); interactions are recorded for assertions.
// Mutex-guarded because the claim flow pokes it from watch goroutines.
type fakeDriver struct {
	mu sync.Mutex

	texts       map[string]string
	textMatches map[string]string
	attrs       map[string]string
	present     map[string]bool
	textPresent map[string]bool
	links       []string
	frame       *fakeDriver

	url     string
	nextURL string
	navErr  error
	shotErr error

	clicks  []string
	fills   map[string]string
	cookies []Cookie
	shots   []string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		texts:       map[string]string{},
		textMatches: map[string]string{},
		attrs:       map[string]string{},
		present:     map[string]bool{},
		textPresent: map[string]bool{},
		fills:       map[string]string{},
	}
}

func fakeKey(a, b string) string { return a + "|" + b }

func (f *fakeDriver) Navigate(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.navErr != nil {
		return f.navErr
	}
	f.url = url
	return nil
}

func (f *fakeDriver) CurrentURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

func (f *fakeDriver) WaitURLContains(fragment string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextURL != "" {
		f.url = f.nextURL
		f.nextURL = ""
	}
	if strings.Contains(f.url, fragment) {
		return nil
	}
	return fmt.Errorf("url %q never contained %q", f.url, fragment)
}

func (f *fakeDriver) Text(selector string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.texts[selector]; ok {
		return v, nil
	}
	return "", fmt.Errorf("no element %q", selector)
}

func (f *fakeDriver) TextMatch(selector, pattern string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.textMatches[fakeKey(selector, pattern)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("no element %q matching %q", selector, pattern)
}

func (f *fakeDriver) Attribute(selector, name string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.attrs[fakeKey(selector, name)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("no attribute %q on %q", name, selector)
}

func (f *fakeDriver) Has(selector string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.present[selector]
}

func (f *fakeDriver) HasText(selector, pattern string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.textPresent[fakeKey(selector, pattern)]
}

func (f *fakeDriver) WaitVisible(selector string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.present[selector] {
		return nil
	}
	return fmt.Errorf("element %q not visible", selector)
}

func (f *fakeDriver) WaitText(selector, pattern string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.textPresent[fakeKey(selector, pattern)] {
		return nil
	}
	return fmt.Errorf("no %q matching %q", selector, pattern)
}

func (f *fakeDriver) Click(selector string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.present[selector] {
		return fmt.Errorf("element %q not found", selector)
	}
	f.clicks = append(f.clicks, selector)
	return nil
}

func (f *fakeDriver) ClickText(selector, pattern string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fakeKey(selector, pattern)
	if !f.textPresent[key] {
		return fmt.Errorf("no %q matching %q", selector, pattern)
	}
	f.clicks = append(f.clicks, key)
	return nil
}

func (f *fakeDriver) Fill(selector, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fills[selector] = value
	return nil
}

func (f *fakeDriver) Links(selector, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.links, nil
}

func (f *fakeDriver) Frame(selector string, _ time.Duration) (Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frame == nil {
		return nil, fmt.Errorf("no frame at %q", selector)
	}
	return f.frame, nil
}

func (f *fakeDriver) SetCookies(cookies []Cookie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cookies = append(f.cookies, cookies...)
	return nil
}

func (f *fakeDriver) Screenshot(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shotErr != nil {
		return f.shotErr
	}
	f.shots = append(f.shots, path)
	return nil
}

func (f *fakeDriver) clicked(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clicks {
		if c == key {
			return true
		}
	}
	return false
}

func (f *fakeDriver) filled(selector string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fills[selector]
}

func (f *fakeDriver) clickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clicks)
}
