package main

import "github.com/mcoot/skyrace/internal/cli"

func main() {
	cli.Execute()
}
