package main

import "github.com/go-arrower/factory/internal/cli"

func main() {
	cli.Execute()
}
