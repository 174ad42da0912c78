package main

import "locksync/cmd"

func main() {
	cmd.Execute()
}
