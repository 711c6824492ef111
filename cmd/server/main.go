package main

import "github.com/nguyentranbao-ct/chat-engine/cmd"

func main() {
	cmd.Execute()
}
