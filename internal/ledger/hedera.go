package ledger

import (
	"context"
	"fmt"
	"time"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"

	"github.com/louweal/trusense-web-server/internal/config"
	"github.com/louweal/trusense-web-server/internal/logger"
	"github.com/louweal/trusense-web-server/internal/metrics"
)

// HederaClient submits messages to Hedera Consensus Service topics.
type HederaClient struct {
	client *hedera.Client
}

// NewHederaClient builds a client for the configured network and operator.
func NewHederaClient(cfg config.HederaConfig) (*HederaClient, error) {
	client, err := hedera.ClientForName(cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("unknown hedera network %q: %w", cfg.Network, err)
	}

	operatorID, err := hedera.AccountIDFromString(cfg.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("invalid operator account ID: %w", err)
	}
	operatorKey, err := hedera.PrivateKeyFromString(cfg.OperatorKey)
	if err != nil {
		return nil, fmt.Errorf("invalid operator key: %w", err)
	}
	client.SetOperator(operatorID, operatorKey)

	log := logger.WithComponent("ledger")
	log.Info().
		Str("network", cfg.Network).
		Str("operator", cfg.OperatorID).
		Msg("hedera client initialized")

	return &HederaClient{client: client}, nil
}

// Submit appends a message to the topic and returns the transaction ID.
func (h *HederaClient) Submit(ctx context.Context, topic string, message []byte) (string, error) {
	topicID, err := hedera.TopicIDFromString(topic)
	if err != nil {
		return "", fmt.Errorf("invalid topic ID %q: %w", topic, err)
	}

	start := time.Now()
	resp, err := hedera.NewTopicMessageSubmitTransaction().
		SetTopicID(topicID).
		SetMessage(message).
		Execute(h.client)
	metrics.LedgerSubmitDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LedgerSubmitTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("submitting to topic %s: %w", topic, err)
	}

	metrics.LedgerSubmitTotal.WithLabelValues("success").Inc()
	return resp.TransactionID.String(), nil
}

// CreateTopic creates a new consensus topic restricted to the operator's
// submit key and returns its topic ID.
func (h *HederaClient) CreateTopic(ctx context.Context) (string, error) {
	resp, err := hedera.NewTopicCreateTransaction().
		SetSubmitKey(h.client.GetOperatorPublicKey()).
		Execute(h.client)
	if err != nil {
		return "", fmt.Errorf("creating topic: %w", err)
	}

	receipt, err := resp.GetReceipt(h.client)
	if err != nil {
		return "", fmt.Errorf("fetching topic receipt: %w", err)
	}
	return receipt.TopicID.String(), nil
}

// Close releases the network client.
func (h *HederaClient) Close() error {
	return h.client.Close()
}
