package main

import "github.com/inkpost/inkpost/cmd"

func main() {
	cmd.Execute()
}
