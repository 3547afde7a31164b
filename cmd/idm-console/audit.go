package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-idm-console/internal/config"
	"github.com/tendant/simple-idm-console/pkg/repository"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read the revocation audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List revocations performed on a user's sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		userID, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if !cfg.HasDatabase() {
			return errors.New("DATABASE_URL is required for the audit trail")
		}

		db, err := repository.NewDB(ctx, repository.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repository.ValidateSchema(ctx, db); err != nil {
			return err
		}

		entries, err := repository.NewRevocationAuditRepository(db).ListByUser(ctx, userID, limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "COMPLETED\tSESSION\tOPERATOR\tRESULT\tDURATION")
		for _, e := range entries {
			result := "revoked"
			if !e.Succeeded {
				result = "failed"
				if e.Error != nil {
					result += ": " + *e.Error
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.CompletedAt.Format(time.RFC3339), e.SessionID, e.OperatorID, result,
				time.Duration(e.DurationMS)*time.Millisecond)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd)

	auditListCmd.Flags().String("user", "", "User ID (required)")
	auditListCmd.Flags().Int("limit", 50, "Maximum number of entries")
	_ = auditListCmd.MarkFlagRequired("user")
}
