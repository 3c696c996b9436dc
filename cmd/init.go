package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize capilbot configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the chatbot and generates a capilbot.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
