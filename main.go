// main is the entry point for the fika CLI.
package main

import (
	"fmt"
	"os"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/cmd"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/iostore"
)

func main() {
	err := cmd.Execute()

	// Close store connections before deciding the exit code.
	iostore.CloseStores()

	if err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}
