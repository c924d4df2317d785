package main

import "github.com/iksnae/chat-message/cmd"

func main() {
	cmd.Execute()
}
