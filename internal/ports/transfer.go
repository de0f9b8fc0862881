package ports

import "context"

// TransferGateway moves value out of campaign custody to an external account.
// A non-nil error means the recipient could not accept the funds; the caller
// must roll back every ledger mutation made on behalf of the transfer.
//
// Implementations may execute arbitrary recipient-side code synchronously, so
// callers hold the campaign's reentrancy lock for the full duration of the
// call and mutate all ledger state before invoking Transfer.
type TransferGateway interface {
	Transfer(ctx context.Context, to string, amount int64, reference string) error
}
