package main

import "github.com/kozaktomas/image-compare/cmd"

func main() {
	cmd.Execute()
}
