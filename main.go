package main

import (
	"os"

	"github.com/ensemblecv/cv-judge/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; keys can come from the environment or the
	// configuration file.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
