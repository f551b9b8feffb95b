package report

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"boutique/internal/log"

	"github.com/go-resty/resty/v2"
)

// Notifier posts reports to a chat webhook. Without a URL it only logs them.
type Notifier struct {
	client *resty.Client
	url    string
	logger *log.Logger
}

type webhookPayload struct {
	Text string `json:"text"`
}

func NewNotifier(url string, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	return &Notifier{
		client: client,
		url:    strings.TrimSpace(url),
		logger: logger.WithComponent(log.ComponentReport),
	}
}

func (n *Notifier) Send(ctx context.Context, text string) error {
	if n.url == "" {
		n.logger.InfoContext(ctx, "No report webhook configured, logging report", "report", text)
		return nil
	}
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(webhookPayload{Text: text}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("post report: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("report webhook returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}
