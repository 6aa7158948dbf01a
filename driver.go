package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Cookie is a browser cookie set on the automation context.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// Driver is the capability surface the claim flow requires from a browser
// automation backend: navigation, bounded element reads, text-matched
// interaction, frame scoping, cookies and screenshots. Any implementation is
// substitutable; tests inject a scripted fake. Text patterns are plain
// substrings matched case-insensitively.
type Driver interface {
	Navigate(url string) error
	CurrentURL() string
	WaitURLContains(fragment string, timeout time.Duration) error

	Text(selector string, timeout time.Duration) (string, error)
	TextMatch(selector, pattern string, timeout time.Duration) (string, error)
	Attribute(selector, name string, timeout time.Duration) (string, error)
	Has(selector string) bool
	HasText(selector, pattern string) bool
	WaitVisible(selector string, timeout time.Duration) error
	WaitText(selector, pattern string, timeout time.Duration) error

	Click(selector string, timeout time.Duration) error
	ClickText(selector, pattern string, timeout time.Duration) error
	Fill(selector, value string, timeout time.Duration) error

	Links(selector, pattern string) ([]string, error)
	Frame(selector string, timeout time.Duration) (Driver, error)
	SetCookies(cookies []Cookie) error
	Screenshot(path string) error
}

// rodDriver drives a live rod page. Frame() returns another rodDriver scoped
// to the embedded frame's page.
type rodDriver struct {
	page *rod.Page
}

func (r *rodDriver) Navigate(url string) error {
	if err := r.page.Navigate(url); err != nil {
		return err
	}
	return r.page.WaitLoad()
}

func (r *rodDriver) CurrentURL() string {
	info, err := r.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (r *rodDriver) WaitURLContains(fragment string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if strings.Contains(r.CurrentURL(), fragment) {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("url did not reach %q within %s", fragment, timeout)
}

func (r *rodDriver) Text(selector string, timeout time.Duration) (string, error) {
	el, err := r.page.Timeout(timeout).Element(selector)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (r *rodDriver) TextMatch(selector, pattern string, timeout time.Duration) (string, error) {
	el, err := r.page.Timeout(timeout).ElementR(selector, jsPattern(pattern))
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (r *rodDriver) Attribute(selector, name string, timeout time.Duration) (string, error) {
	el, err := r.page.Timeout(timeout).Element(selector)
	if err != nil {
		return "", err
	}
	val, err := el.Attribute(name)
	if err != nil || val == nil {
		return "", err
	}
	return *val, nil
}

func (r *rodDriver) Has(selector string) bool {
	has, _, err := r.page.Has(selector)
	return err == nil && has
}

func (r *rodDriver) HasText(selector, pattern string) bool {
	has, _, err := r.page.HasR(selector, jsPattern(pattern))
	return err == nil && has
}

func (r *rodDriver) WaitVisible(selector string, timeout time.Duration) error {
	el, err := r.page.Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

func (r *rodDriver) WaitText(selector, pattern string, timeout time.Duration) error {
	_, err := r.page.Timeout(timeout).ElementR(selector, jsPattern(pattern))
	return err
}

func (r *rodDriver) Click(selector string, timeout time.Duration) error {
	el, err := r.page.Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (r *rodDriver) ClickText(selector, pattern string, timeout time.Duration) error {
	el, err := r.page.Timeout(timeout).ElementR(selector, jsPattern(pattern))
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (r *rodDriver) Fill(selector, value string, timeout time.Duration) error {
	el, err := r.page.Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.Input(value)
}

func (r *rodDriver) Links(selector, pattern string) ([]string, error) {
	els, err := r.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(pattern))
	var hrefs []string
	for _, el := range els {
		txt, err := el.Text()
		if err != nil || !re.MatchString(txt) {
			continue
		}
		href, err := el.Attribute("href")
		if err != nil || href == nil {
			continue
		}
		hrefs = append(hrefs, *href)
	}
	return hrefs, nil
}

func (r *rodDriver) Frame(selector string, timeout time.Duration) (Driver, error) {
	el, err := r.page.Timeout(timeout).Element(selector)
	if err != nil {
		return nil, err
	}
	fp, err := el.Frame()
	if err != nil {
		return nil, err
	}
	return &rodDriver{page: fp}, nil
}

func (r *rodDriver) SetCookies(cookies []Cookie) error {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return r.page.SetCookies(params)
}

func (r *rodDriver) Screenshot(path string) error {
	data, err := r.page.Screenshot(false, nil)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// jsPattern converts a plain substring into the case-insensitive regex form
// rod's ElementR/HasR expect.
func jsPattern(text string) string {
	return "/" + regexp.QuoteMeta(text) + "/i"
}
