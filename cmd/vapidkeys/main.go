// Command vapidkeys prints a fresh VAPID key pair in .env format.
package main

import (
	"fmt"
	"os"

	webpushinfra "github.com/parishpush/internal/infrastructure/webpush"
)

func main() {
	public, private, err := webpushinfra.GenerateVAPIDKeys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate VAPID keys: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("VAPID_PUBLIC_KEY=%s\n", public)
	fmt.Printf("VAPID_PRIVATE_KEY=%s\n", private)
}
