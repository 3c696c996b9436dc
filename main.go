package main

import (
	"os"

	"github.com/pemkab-anambas/dukcapil-chatbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
