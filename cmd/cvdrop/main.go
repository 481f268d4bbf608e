package main

import "github.com/jmcleod/cvdrop/cmd/cvdrop/cmd"

func main() {
	cmd.Execute()
}
