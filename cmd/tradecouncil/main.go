package main

import "tradecouncil/internal/cli"

func main() {
	cli.Execute()
}
