package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

func (l Level) icon() string {
	switch l {
	case LevelSuccess:
		return "✅"
	case LevelWarning:
		return "⚠️"
	case LevelError:
		return "❌"
	default:
		return "ℹ️"
	}
}

// Notifier echoes messages to stdout and forwards them to an optional
// webhook. Webhook failures are logged, never fatal.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) Notify(message string, level Level) {
	formatted := fmt.Sprintf("%s [freegames] %s", level.icon(), message)
	fmt.Println(formatted)

	if n.webhookURL == "" {
		return
	}
	if err := n.sendWebhook(formatted); err != nil {
		fmt.Printf("Failed to send webhook notification: %v\n", err)
	}
}

func (n *Notifier) sendWebhook(text string) error {
	payload, err := json.Marshal(map[string]string{"text": text, "message": text})
	if err != nil {
		return err
	}
	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// NotifyRun sends the per-run claim summary.
func (n *Notifier) NotifyRun(results []ClaimResult) {
	if len(results) == 0 {
		n.Notify("No free offers available this week.", LevelInfo)
		return
	}

	claimed := 0
	lines := make([]string, 0, len(results))
	for _, r := range results {
		final := r.Final()
		if final.Status == StatusClaimed {
			claimed++
		}
		line := fmt.Sprintf("%s %s - %s", final.Status.Icon(), r.Title(), final.Status)
		if r.Offer.URL != "" {
			line += "\n   " + r.Offer.URL
		}
		lines = append(lines, line)
	}

	level := LevelInfo
	if claimed > 0 {
		level = LevelSuccess
	}
	n.Notify(fmt.Sprintf("Claimed %d/%d free offers:\n%s", claimed, len(results), strings.Join(lines, "\n")), level)
}
