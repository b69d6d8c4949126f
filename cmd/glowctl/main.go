package main

import "go-glow-ai/internal/cli"

func main() {
	cli.Execute()
}
