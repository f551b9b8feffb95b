// Package google appends ledger rows to a Google spreadsheet, authenticated
// as a service account or with a user token from the OAuth consent flow.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	ports "boutique/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *slog.Logger
}

var (
	_ ports.RowAppender  = (*Client)(nil)
	_ ports.HeaderWriter = (*Client)(nil)
)

// Config selects the spreadsheet and the credentials. Service account
// credentials win over the OAuth pair; CredentialsJSON wins over
// CredentialsFile.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string

	// OAuth client secrets plus the token written by the consent flow.
	OAuthClientFile string
	OAuthTokenFile  string
}

// New creates a Sheets client.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID)
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, logger: logger}, nil
}

func clientOptions(ctx context.Context, cfg Config) ([]goption.ClientOption, error) {
	if cfg.CredentialsJSON == "" && cfg.CredentialsFile == "" && cfg.OAuthClientFile != "" {
		ts, err := userTokenSource(ctx, cfg.OAuthClientFile, cfg.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		return []goption.ClientOption{goption.WithTokenSource(ts)}, nil
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// NewHTTPClient is the pooled client used for the OAuth token exchange in
// the admin CLI.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// AppendRow inserts the row after the last row of the tab's table.
func (c *Client) AppendRow(ctx context.Context, sheet string, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, a1(sheet, "A1"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	if resp.Updates == nil {
		return "", fmt.Errorf("append to sheet %s: empty update response", sheet)
	}
	return resp.Updates.UpdatedRange, nil
}

// EnsureHeader writes the header into row 1 when that row is empty.
func (c *Client) EnsureHeader(ctx context.Context, sheet string, header []any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := a1(sheet, "1:1")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", sheet, err)
	}
	if hasHeader(resp.Values) {
		return nil
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1(sheet, "A1"), &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", sheet, err)
	}
	c.logger.InfoContext(ctx, "Wrote sheet header", "sheet", sheet)
	return nil
}

func hasHeader(values [][]any) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values[0] {
		if strings.TrimSpace(fmt.Sprint(v)) != "" {
			return true
		}
	}
	return false
}

// a1 builds an A1 range, quoting the sheet name the way the API expects.
func a1(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}
