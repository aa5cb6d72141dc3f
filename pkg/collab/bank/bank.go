// Package bank defines the contracts for the ledger-backed domain
// collaborators: read queries, write operations (transfers), and QR code
// creation.
//
// "Verification required" is modelled as the typed [VerificationError]
// rather than a transport status code so that core routing logic stays
// transport-agnostic. Fraud/consent rejections are the typed
// [RejectedError] whose Reason is surfaced verbatim to the caller.
//
// Implementations must be safe for concurrent use.
package bank

import (
	"context"
	"errors"
	"fmt"
)

// VerificationKind names the operation class that triggered a verification
// demand.
type VerificationKind string

const (
	KindRead  VerificationKind = "read"
	KindWrite VerificationKind = "write"
)

// VerificationError signals that the session must complete a verification
// round before the requested operation can proceed. It is a control-flow
// branch for the router, not a user-visible failure.
type VerificationError struct {
	// Kind is the operation class the verification applies to.
	Kind VerificationKind
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("bank: additional verification required for %s operations", e.Kind)
}

// NeedsVerification reports whether err carries a [VerificationError] and,
// if so, returns its kind.
func NeedsVerification(err error) (VerificationKind, bool) {
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return "", false
}

// RejectedError signals that the fraud/consent gate declined the operation.
// Reason is the collaborator's wording, passed through unmodified.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "bank: operation rejected: " + e.Reason
}

// Transaction is a single ledger entry as reported by the read collaborator.
type Transaction struct {
	ID           int     `json:"id"`
	AccountID    string  `json:"account_id"`
	Counterparty string  `json:"counterparty"`
	Amount       float64 `json:"amount"`
	Type         string  `json:"type"`
}

// ReadRequest carries a natural-language read query plus the session's
// verification state.
type ReadRequest struct {
	UserText  string
	AccountID string
	Verified  bool
}

// ReadResultType discriminates the shape of a [ReadResult].
type ReadResultType string

const (
	ReadBalance      ReadResultType = "balance"
	ReadTransactions ReadResultType = "transactions"
	ReadUnknown      ReadResultType = "unknown"
)

// ReadResult is the outcome of a read query. Exactly one of Amount or Items
// is meaningful, selected by Type.
type ReadResult struct {
	Type   ReadResultType
	Amount float64
	Items  []Transaction
}

// TransferRequest describes a debit from FromAccount to ToAccount.
type TransferRequest struct {
	FromAccount string
	ToAccount   string
	Amount      float64
	Verified    bool
}

// Transfer is a completed write operation.
type Transfer struct {
	ID           int
	Counterparty string
	Amount       float64
}

// QRRequest asks for a merchant payment QR code.
type QRRequest struct {
	AccountID string
	Amount    float64
	Verified  bool
}

// Ops is the abstraction over the read/write/QR domain collaborators.
//
// Each method returns *VerificationError when the collaborator demands a
// verification round, and *RejectedError when the fraud/consent gate blocks
// the operation. Any other non-nil error means the collaborator is
// unavailable.
type Ops interface {
	// ReadQuery answers a balance or transaction-history question.
	ReadQuery(ctx context.Context, req ReadRequest) (*ReadResult, error)

	// Transfer moves money between accounts.
	Transfer(ctx context.Context, req TransferRequest) (*Transfer, error)

	// CreateQR returns a base64-encoded QR payload for the given amount.
	CreateQR(ctx context.Context, req QRRequest) (string, error)
}
