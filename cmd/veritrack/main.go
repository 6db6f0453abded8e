package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"veritrack/internal/cli"
)

func main() {
	// Optional .env for provider API keys
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
