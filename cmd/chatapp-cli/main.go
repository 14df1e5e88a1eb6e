package main

import "github.com/devanmodhavadiya189/chatapp/cmd/chatapp-cli/cmd"

func main() {
	cmd.Execute()
}
