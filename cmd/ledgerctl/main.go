package main

import "greenpulse-backend/internal/cli"

func main() {
	cli.Execute()
}
