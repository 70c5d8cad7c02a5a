package ledger

import "context"

// Submitter appends a message to a tamper-evident consensus topic and returns
// the transaction ID. A failure surfaces to the HTTP caller but never blocks
// alert evaluation.
type Submitter interface {
	Submit(ctx context.Context, topic string, message []byte) (string, error)
}
