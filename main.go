package main

import "audiogest/cmd"

func main() {
	cmd.Execute()
}
