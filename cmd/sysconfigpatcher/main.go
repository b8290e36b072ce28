package main

import "github.com/bluss/sysconfigpatcher/cmd/sysconfigpatcher/cmd"

func main() {
	cmd.Execute()
}
