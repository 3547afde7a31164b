package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-idm-console/internal/config"
	"github.com/tendant/simple-idm-console/internal/tui"
	"github.com/tendant/simple-idm-console/pkg/sessiondetail"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and revoke user sessions",
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Open the session console for a user",
	Long: `Open the terminal console on a user's sessions. With --session the
detail of that session is opened on top of the list.

Keys: enter opens a session, x revokes it, r reloads, esc goes back, q quits.`,
	Example: `  idm-console sessions show --user 8f1c...
  idm-console sessions show --user 8f1c... --session 2b7e... --locale de-DE`,
	RunE: runSessionsShow,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)

	sessionsShowCmd.Flags().String("user", "", "User ID (required)")
	sessionsShowCmd.Flags().String("session", "", "Session ID to open")
	sessionsShowCmd.Flags().String("locale", "", "UI locale for dates (default: $DEFAULT_UI_LOCALE)")
	sessionsShowCmd.Flags().String("operator", os.Getenv("USER"), "Operator identity recorded in the audit trail")
	sessionsShowCmd.Flags().String("log-file", "idm-console.log", "Log file")
	_ = sessionsShowCmd.MarkFlagRequired("user")
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user")
	sessionID, _ := cmd.Flags().GetString("session")
	locale, _ := cmd.Flags().GetString("locale")
	operator, _ := cmd.Flags().GetString("operator")
	logFile, _ := cmd.Flags().GetString("log-file")

	// The terminal is the screen, so logs go to a file
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("operator", operator)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if locale == "" {
		locale = cfg.DefaultUILocale
	}

	comps, err := buildComponents(ctx, cfg, operator, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	return tui.Run(ctx, tui.Config{
		Service:   comps.Service,
		UserID:    userID,
		SessionID: sessionID,
		Operator:  operator,
		Options: sessiondetail.Options{
			DateTimeFormat: sessiondetail.FormatForLocale(locale),
			Parser:         sessiondetail.DefaultUserAgentParser,
		},
	})
}
