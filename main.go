package main

import "winequality/cmd"

func main() {
	cmd.Execute()
}
