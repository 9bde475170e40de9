// Package notify pushes analysis results to an ntfy server.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/setevik/crashtriage/internal/config"
	"github.com/setevik/crashtriage/internal/report"
)

// Ntfy sends crash notifications to an ntfy topic URL.
type Ntfy struct {
	cfg    *config.Config
	client *http.Client
}

// NewNtfy creates a new Ntfy notifier.
func NewNtfy(cfg *config.Config) *Ntfy {
	return &Ntfy{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Ntfy.Timeout.Duration},
	}
}

// Notify posts the report if its most severe finding reaches the configured
// minimum. With only_new set, crashes already in history are skipped.
func (n *Ntfy) Notify(ctx context.Context, rep *report.Report) error {
	if n.cfg.Ntfy.URL == "" {
		slog.Debug("ntfy URL not configured, skipping notification")
		return nil
	}

	sev := Highest(rep)
	if !n.cfg.ShouldAlert(sev) {
		slog.Debug("findings below alert severity, skipping", "highest", sev)
		return nil
	}
	if n.cfg.Ntfy.OnlyNew && rep.Recurrence != nil && rep.Recurrence.Count > 0 {
		slog.Debug("crash already seen, skipping", "count", rep.Recurrence.Count)
		return nil
	}

	title := FormatTitle(n.cfg.Instance.ID, rep)
	priority := n.cfg.NtfyPriority(sev)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.Ntfy.URL, strings.NewReader(FormatBody(n.cfg.Instance.ID, rep)))
	if err != nil {
		return fmt.Errorf("creating ntfy request: %w", err)
	}
	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", TagsForSeverity(sev))

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}

	slog.Info("notification sent", "title", title, "priority", priority)
	return nil
}
