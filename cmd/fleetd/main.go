package main

import "github.com/synkti/fleetd/internal/cli"

var version = "dev"

func main() {
	cli.Execute(version)
}
