package main

import "github.com/gid-sh/gid/internal/cmd"

func main() {
	cmd.Execute()
}
