package main

import "github.com/hemedy99/facegate/cmd"

func main() {
	cmd.Execute()
}
