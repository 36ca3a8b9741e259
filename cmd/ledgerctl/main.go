package main

import "github.com/erp/ledger/internal/cli"

var version = "1.0.0"

func main() {
	cli.Execute(version)
}
