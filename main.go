package main

import "github.com/KaramelBytes/datawash-cli/cmd"

func main() {
	cmd.Execute()
}
