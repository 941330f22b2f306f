package main

import (
	"dharmaverse/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cmd.Execute()
}
