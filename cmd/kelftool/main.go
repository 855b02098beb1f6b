package main

import "github.com/connesc/kelftool/internal/cmd"

func main() {
	cmd.Execute()
}
