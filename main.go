package main

import (
	"os"

	"github.com/zhenwenc/sandbox-viper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
