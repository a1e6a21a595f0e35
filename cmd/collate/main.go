package main

import (
	"os"

	"ward.fit/collate/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
