package main

import (
	"github.com/estnia/copyU/cmd"
)

func main() {
	cmd.Execute()
}
