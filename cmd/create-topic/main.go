// Command create-topic creates a new Hedera Consensus Service topic with the
// operator key as submit key and prints its topic ID.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/louweal/trusense-web-server/internal/config"
	"github.com/louweal/trusense-web-server/internal/ledger"
	"github.com/louweal/trusense-web-server/internal/logger"
)

func main() {
	cfg := config.FromEnv()
	logger.Init(cfg.LogLevel)

	client, err := ledger.NewHederaClient(cfg.Hedera)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error creating hedera client:", err)
		os.Exit(1)
	}
	defer client.Close()

	topicID, err := client.CreateTopic(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error creating topic:", err)
		os.Exit(1)
	}

	fmt.Println("New topic created with ID:", topicID)
}
