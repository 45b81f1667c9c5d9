package main

import (
	"github.com/hitoshi/streakboard/internal/cli"
)

func main() {
	cli.Run()
}
