package main

import "github.com/elastiq/elasticsource/cmd"

func main() {
	cmd.Execute()
}
