package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/fjod/fitstore/internal/cli"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()
	os.Exit(cli.Execute())
}
