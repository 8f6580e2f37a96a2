package main

import (
	"log"

	"github.com/SenseNet/sn-blob-azure/cmd/snblob/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Fatal(err)
	}
}
