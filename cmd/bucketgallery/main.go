package main

import (
	"os"

	"github.com/koustreak/bucketgallery/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
