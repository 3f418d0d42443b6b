package main

import (
	"github.com/idoschwartz11/MySmartCart/internal/cli"
)

func main() {
	cli.Execute()
}
