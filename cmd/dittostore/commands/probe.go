package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marmos91/dittostore/pkg/client"
)

var (
	probeAddress string
	probeRandom  bool
	probeTimeout time.Duration
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Exercise a running server with sample writes and reads",
	Long: `Probe a running DittoStore server.

The probe writes a few sample payloads, reads them back, verifies the
contents, and checks that an unknown identifier is reported as not found.

Examples:
  # Probe a local server
  dittostore probe

  # Probe a remote server
  dittostore probe --address store.internal:50051

  # Use random identifiers so repeated probes do not overwrite each other
  dittostore probe --random`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeAddress, "address", "localhost:50051", "Server address (host:port)")
	probeCmd.Flags().BoolVar(&probeRandom, "random", false, "Use random request identifiers")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "Overall probe timeout")
}

func runProbe(cmd *cobra.Command, args []string) error {
	c, err := client.New(probeAddress)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	samples := []struct {
		id      string
		payload string
	}{
		{"test-1", "Hello, World!"},
		{"test-2", "This is a test message"},
		{"test-3", "Another test message"},
	}
	if probeRandom {
		for i := range samples {
			samples[i].id = uuid.NewString()
		}
	}

	fmt.Printf("Probing %s\n\n", probeAddress)

	for _, s := range samples {
		offset, err := c.Write(ctx, s.id, []byte(s.payload))
		if err != nil {
			return err
		}
		fmt.Printf("  write %-40s -> offset %d\n", s.id, offset)
	}

	fmt.Println()

	for _, s := range samples {
		data, err := c.Read(ctx, s.id)
		if err != nil {
			return err
		}
		if string(data) != s.payload {
			return fmt.Errorf("read %q returned wrong payload: got %q, want %q", s.id, data, s.payload)
		}
		fmt.Printf("  read  %-40s -> %q\n", s.id, data)
	}

	// An unknown identifier must come back as a clean not-found, not an RPC error
	missing := "missing-" + uuid.NewString()
	if _, err := c.Read(ctx, missing); !errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("expected not-found for %q, got: %v", missing, err)
	}
	fmt.Printf("  read  %-40s -> not found (as expected)\n", missing)

	fmt.Println("\nProbe completed successfully")
	return nil
}
