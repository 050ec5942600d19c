package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"gitlab.com/dirk.krummacker/contacts-api/internal/cli"
)

// Usage example on the command line:
// > export CONTACTS_TOKEN=$(go run main.go token dirk --secret=geheim)
// > go run main.go create --name="Marcus Antonius" --email=marcus@example.com --phone="+39 999 777 555"
// > go run main.go list --favorite=true
// > go run main.go bench --sizes=1000,5000
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
