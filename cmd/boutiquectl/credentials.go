package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"boutique/internal/auth"
	gsheet "boutique/internal/sheets/google"

	"github.com/spf13/cobra"
)

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for OWNER_PASSWORD_HASH or STAFF_ACCOUNTS",
		Long: `Print a bcrypt hash of the password.

With no argument the password is read from the first line of stdin, which
keeps it out of the shell history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newSheetsAuthCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize spreadsheet access with a Google account",
		Long: `Run the OAuth consent flow and save the resulting token.

Needs GOOGLE_OAUTH_CLIENT_FILE. The token is written to
GOOGLE_OAUTH_TOKEN_FILE; the worker uses it when no service account is
configured. Add http://localhost:<port>/callback to the client's
authorized redirect URIs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.GoogleOAuthClientFile == "" {
				return errors.New("set GOOGLE_OAUTH_CLIENT_FILE")
			}
			oc, err := gsheet.OAuthConfig(a.cfg.GoogleOAuthClientFile, port)
			if err != nil {
				return err
			}
			ctx, stop := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer stop()
			tok, err := gsheet.Authorize(ctx, oc, func(url string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize:\n%s\n", url)
			})
			if err != nil {
				return err
			}
			if err := gsheet.SaveToken(a.cfg.GoogleOAuthTokenFile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", a.cfg.GoogleOAuthTokenFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "8085", "local port for the OAuth redirect")
	return cmd
}
