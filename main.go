package main

import "github.com/ocha-dataviz/ghotrack/cmd"

func main() {
	cmd.Execute()
}
