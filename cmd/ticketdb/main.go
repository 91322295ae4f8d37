package main

import (
	"fmt"
	"os"

	"github.com/railhub/ticketdb/internal/config"
	"github.com/railhub/ticketdb/pkg/dispatcher"
)

func main() {
	configPath := os.Getenv("TICKETDB_CONFIG")
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ticketdb: %v\n", err)
		os.Exit(1)
	}

	d, err := dispatcher.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ticketdb: %v\n", err)
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ticketdb: %v\n", err)
		os.Exit(1)
	}
}
