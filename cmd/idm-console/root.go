package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "idm-console",
	Short: "Operator console for identity platform sessions",
	Long: `idm-console lets an operator inspect a user's sessions on the identity
platform and revoke them, either in the terminal or through the HTTP console
backend used by the browser front-end.`,
	SilenceUsage: true,
}
