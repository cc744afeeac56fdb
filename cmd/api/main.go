package main

import "pixbridge/internal/cli"

func main() {
	cli.Execute()
}
