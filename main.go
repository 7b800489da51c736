package main

import (
	"dbmig/cmd"
)

func main() {
	cmd.Execute()
}
