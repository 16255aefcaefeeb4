package main

import "github.com/theirongolddev/fintree/cmd"

func main() {
	cmd.Execute()
}
