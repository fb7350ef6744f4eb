package adapter

import "context"

// Event topics, one per successful mutating operation.
const (
	TopicInit               = "init"
	TopicPaymentCreated     = "payment_created"
	TopicPaymentCompleted   = "payment_completed"
	TopicPaymentRefunded    = "payment_refunded"
	TopicVoucherMinted      = "voucher_minted"
	TopicVoucherActivated   = "voucher_activated"
	TopicVoucherTransferred = "voucher_transferred"
)

// EventSink is an append-only publish of (topic, payload) consumed by
// off-platform indexers. Emission happens after the mutation commits;
// the core carries no delivery guarantee beyond publishing once.
type EventSink interface {
	Publish(ctx context.Context, topic string, payload any) error
}
