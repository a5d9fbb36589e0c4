package main

import "github.com/veriscope/veriscope/cmd"

func main() {
	cmd.Execute()
}
