package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // funds held in escrow, awaiting admin decision
	PaymentStatusCompleted PaymentStatus = "completed" // terminal; funds stay escrowed until external disbursement
	PaymentStatusRefunded  PaymentStatus = "refunded"  // terminal; funds returned to the buyer
)

// Payment records one escrowed plan purchase. Status transitions are one-way:
// pending -> completed or pending -> refunded, nothing else.
type Payment struct {
	ID        uint64
	Buyer     string // principal that paid and can be refunded
	PlanID    string
	Amount    int64  // minor units of the token
	Token     string // token contract address the amount was escrowed in
	Status    PaymentStatus
	CreatedAt time.Time
}

// Terminal reports whether the payment left the pending state.
func (p *Payment) Terminal() bool { return p.Status != PaymentStatusPending }
