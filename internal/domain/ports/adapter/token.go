package adapter

import "context"

// TokenLedger is the standard fungible-asset interface the escrow moves funds
// through. It is an external collaborator: amounts are minor units, and
// negative/zero semantics are the ledger's concern, not ours.
type TokenLedger interface {
	Transfer(ctx context.Context, token, from, to string, amount int64) error
	Mint(ctx context.Context, token, to string, amount int64) error
	Burn(ctx context.Context, token, from string, amount int64) error
	Balance(ctx context.Context, token, addr string) (int64, error)
}
