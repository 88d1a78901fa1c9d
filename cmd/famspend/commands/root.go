package commands

import (
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "famspend",
	Short: "famspend - conversational family expense tracker",
	Long: `famspend records expenses from plain chat messages ("500 for groceries
yesterday") and answers questions about spending ("how much did we spend on
food this month?").

Run the HTTP API and Telegram bot with "serve", chat from the terminal with
"chat", or deliver family notifications with "worker".`,
	SilenceUsage: true,
}

// Execute runs the command line. Called once by main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")
}

func envFiles() []string {
	if envFile == "" {
		return nil
	}
	return []string{envFile}
}
