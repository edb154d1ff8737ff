package main

import "github.com/mcoot/blockmatch/internal/cli"

func main() {
	cli.Execute()
}
