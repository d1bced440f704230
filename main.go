package main

import (
	"context"
	"log"
	"os"

	"farmcare-server-go/commands"
)

func main() {
	if err := commands.NewRootCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
