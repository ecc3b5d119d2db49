package main

import (
	"log"

	"github.com/spec-kit/ticket-web/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
