package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "capilbot",
	Short: "Retrieval-augmented chatbot for Disdukcapil public services",
	Long: `Capilbot answers citizen questions about civil-registry services
(KTP, KK, akta, KIA) for Disdukcapil Kabupaten Kepulauan Anambas.
It indexes FAQs and regulation documents into a local vector store,
grounds every answer in the retrieved context, and resolves document
tracking requests against the registry's status API.`,
}

func Execute() error {
	return rootCmd.Execute()
}

// debugf prints diagnostic output only when --verbose is set.
func debugf(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "capilbot.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
