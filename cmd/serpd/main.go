package main

import (
	"github.com/setlabs/serpd/internal/cli"
)

func main() {
	cli.Execute()
}
