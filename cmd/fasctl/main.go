package main

import "github.com/fasops-io/fasops/cmd/fasctl/cmd"

func main() {
	cmd.Execute()
}
