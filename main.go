package main

import "github.com/CTXz/ippdu/cmd"

func main() {
	cmd.Execute()
}
