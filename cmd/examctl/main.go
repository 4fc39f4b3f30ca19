package main

import "github.com/MrEthical07/examAuth/cmd/examctl/cmd"

func main() {
	cmd.Execute()
}
