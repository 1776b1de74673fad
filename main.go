package main

import "yieldwatch/internal/cli"

func main() {
	cli.Execute()
}
