package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// OAuthConfig reads OAuth client secrets and points the redirect at the
// local callback server on port.
func OAuthConfig(clientFile, port string) (*oauth2.Config, error) {
	b, err := os.ReadFile(clientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	cfg, err := goauth.ConfigFromJSON(b, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	cfg.RedirectURL = "http://localhost:" + port + "/callback"
	return cfg, nil
}

// Authorize runs the consent flow: it serves the redirect on the config's
// port, hands the consent URL to prompt and exchanges the returned code.
func Authorize(ctx context.Context, cfg *oauth2.Config, prompt func(url string)) (*oauth2.Token, error) {
	state := uuid.NewString()
	ln, err := net.Listen("tcp", callbackAddr(cfg.RedirectURL))
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
			done <- result{err: fmt.Errorf("consent refused: %s", q.Get("error"))}
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			done <- result{err: errors.New("oauth state mismatch")}
		default:
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
			done <- result{code: q.Get("code")}
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	prompt(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, NewHTTPClient())
		tok, err := cfg.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization aborted: %w", ctx.Err())
	}
}

func callbackAddr(redirect string) string {
	u, err := url.Parse(redirect)
	if err != nil || u.Host == "" {
		return "localhost:8085"
	}
	return u.Host
}

// SaveToken writes tok as JSON, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func loadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return &tok, nil
}

// userTokenSource refreshes the saved user token as needed.
func userTokenSource(ctx context.Context, clientFile, tokenFile string) (oauth2.TokenSource, error) {
	if tokenFile == "" {
		return nil, errors.New("missing GOOGLE_OAUTH_TOKEN_FILE (run boutiquectl sheets-auth)")
	}
	cfg, err := OAuthConfig(clientFile, "8085")
	if err != nil {
		return nil, err
	}
	tok, err := loadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, NewHTTPClient())
	return cfg.TokenSource(ctx, tok), nil
}
