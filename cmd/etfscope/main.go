package main

import (
	"log"
	"os"

	"ETFScope/internal/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := cli.NewRootCmd().Execute(); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}
