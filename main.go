package main

import "github.com/quarrylabs/leadharvest/cmd"

func main() {
	cmd.Execute()
}
