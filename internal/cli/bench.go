package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/dirk.krummacker/contacts-api/internal/client"
	"gitlab.com/dirk.krummacker/contacts-api/pkg/model"
)

// NewBenchCommand creates the bench command. It measures the average latency of each operation
// in microseconds for growing numbers of contacts.
func NewBenchCommand(opts *RootOptions) *cobra.Command {
	var sizes []int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure request latencies",
		Long: `Create, update, read and delete the given numbers of contacts and print the
average latency of each request type in microseconds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), opts.client(), sizes, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntSliceVar(&sizes, "sizes", []int{100, 500, 1000, 5000}, "numbers of contacts per round")
	return cmd
}

func runBench(ctx context.Context, c *client.Client, sizes []int, w io.Writer) error {
	input := model.ContactInput{
		Name:  "Marcus Antonius",
		Email: "marcus@example.com",
		Phone: "+39 999 777 555",
	}
	newPhone := "+39 111 333 555"
	patch := model.ContactPatch{Phone: &newPhone}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Elements      POST       PUT       GET    DELETE ")
	fmt.Fprintln(w, "---------------------------------------------------")
	for _, loops := range sizes {
		if loops < 1 {
			return fmt.Errorf("invalid size %d", loops)
		}
		fmt.Fprintf(w, "%10d", loops)

		// POST requests
		ids := make([]string, 0, loops)
		var duration time.Duration
		for i := 0; i < loops; i++ {
			before := time.Now()
			contact, err := c.Create(ctx, input)
			if err != nil {
				return err
			}
			duration += time.Since(before)
			ids = append(ids, contact.Id)
		}
		fmt.Fprintf(w, "%10d", average(duration, loops))

		// PUT, GET and DELETE requests
		steps := []func(id string) error{
			func(id string) error {
				_, err := c.Update(ctx, id, patch)
				return err
			},
			func(id string) error {
				_, err := c.Get(ctx, id)
				return err
			},
			func(id string) error {
				return c.Delete(ctx, id)
			},
		}
		for _, step := range steps {
			avg, err := callInLoop(ids, step)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%10d", avg)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// callInLoop calls f for all ids in random order and returns the average latency.
func callInLoop(ids []string, f func(id string) error) (int64, error) {
	shuffled := make([]string, len(ids))
	copy(shuffled, ids)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var duration time.Duration
	for _, id := range shuffled {
		before := time.Now()
		if err := f(id); err != nil {
			return 0, err
		}
		duration += time.Since(before)
	}
	return average(duration, len(ids)), nil
}

// average returns the average duration in microseconds.
func average(total time.Duration, count int) int64 {
	return total.Microseconds() / int64(count)
}
