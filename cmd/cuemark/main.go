package main

import (
	"log"

	"github.com/MrSnakeDoc/cuemark/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ cuemark failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ cuemark stopped with error: %v", err)
	}
}
