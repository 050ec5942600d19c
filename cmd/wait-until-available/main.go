package main

import (
	"context"
	"flag"
	"time"

	"github.com/sirupsen/logrus"
	"gitlab.com/dirk.krummacker/contacts-api/internal/client"
)

// Usage example on the command line:
// > go run main.go -url=http://localhost:8080 -timeout=2m
func main() {
	urlPtr := flag.String("url", "http://localhost:8080", "the base URL of the contacts service")
	intervalPtr := flag.Duration("interval", 5*time.Second, "the time between two attempts")
	timeoutPtr := flag.Duration("timeout", 0, "give up after this time, 0 waits forever")
	flag.Parse()

	ctx := context.Background()
	if *timeoutPtr > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeoutPtr)
		defer cancel()
	}

	c := client.New(*urlPtr, "", nil)
	start := time.Now()
	for {
		err := c.Health(ctx)
		if err == nil {
			logrus.WithField("waited", time.Since(start).Round(time.Second).String()).Info("contacts service is available")
			return
		}
		logrus.WithError(err).WithField("waited", time.Since(start).Round(time.Second).String()).Info("waiting for contacts service")
		select {
		case <-ctx.Done():
			logrus.WithError(ctx.Err()).Fatal("contacts service did not become available")
		case <-time.After(*intervalPtr):
		}
	}
}
