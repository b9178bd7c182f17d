package main

import "allocation-agent/cmd"

func main() {
	cmd.Execute()
}
