package main

import "github.com/ivlev/scene2video/internal/cli"

func main() {
	cli.Execute()
}
