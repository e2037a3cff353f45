package main

import (
	"ragingest/cmd"
)

func main() {
	cmd.Execute()
}
