package main

import "github.com/jrsteele09/restaurant-console/cmd/console/cmd"

func main() {
	cmd.Execute()
}
