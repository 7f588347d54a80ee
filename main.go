package main

import "celebration-backend/cmd"

func main() {
	cmd.Run()
}
