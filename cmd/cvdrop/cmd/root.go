package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cvdrop",
	Short: "cvdrop is a small résumé drop box",
	Long: `A small web application where applicants sign in with LinkedIn,
upload a résumé, and an administrator reviews the uploaded files.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
