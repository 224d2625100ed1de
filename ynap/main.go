package main

import "github.com/cassava/ynap/ynap/cmd"

func main() {
	cmd.Execute()
}
