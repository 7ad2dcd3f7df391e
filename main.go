package main

import "github.com/kumolabai/upctl/cmd"

func main() {
	cmd.Execute()
}
