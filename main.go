package main

import "github.com/ftl/tmv71adapter/cmd"

func main() {
	cmd.Execute()
}
