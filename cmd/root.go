package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Personal portfolio site with live typing, scroll-spy and a contact form",
	Long: `portfolio serves a single-page personal site. Each open page keeps a
live view session over a websocket that drives the typing animation, the
active navigation link and reveal-on-scroll, while theme preferences and
contact messages are kept in SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "portfolio.yml", "config file path")
}
