package main

import "github.com/aponysus/asyncguard/internal/cli"

func main() {
	cli.Execute()
}
