// Package mock provides a test double for the bank.Ops interface.
//
// Zero values for response fields cause methods to return zero values and
// nil errors. Set the Err fields to inject errors, including the typed
// *bank.VerificationError and *bank.RejectedError variants.
package mock

import (
	"context"
	"sync"

	"github.com/voxteller/voxteller/pkg/collab/bank"
)

// Ops is a mock implementation of bank.Ops. It records every call so tests
// can assert on request contents.
type Ops struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// ReadResult is returned by ReadQuery when ReadErr is nil.
	ReadResult *bank.ReadResult

	// ReadErr, if non-nil, is returned by ReadQuery.
	ReadErr error

	// TransferResult is returned by Transfer when TransferErr is nil.
	TransferResult *bank.Transfer

	// TransferErr, if non-nil, is returned by Transfer.
	TransferErr error

	// QRCode is returned by CreateQR when QRErr is nil.
	QRCode string

	// QRErr, if non-nil, is returned by CreateQR.
	QRErr error

	// --- Call records ---

	ReadCalls     []bank.ReadRequest
	TransferCalls []bank.TransferRequest
	QRCalls       []bank.QRRequest
}

var _ bank.Ops = (*Ops)(nil)

// ReadQuery implements bank.Ops.
func (o *Ops) ReadQuery(_ context.Context, req bank.ReadRequest) (*bank.ReadResult, error) {
	o.mu.Lock()
	o.ReadCalls = append(o.ReadCalls, req)
	o.mu.Unlock()
	if o.ReadErr != nil {
		return nil, o.ReadErr
	}
	return o.ReadResult, nil
}

// Transfer implements bank.Ops.
func (o *Ops) Transfer(_ context.Context, req bank.TransferRequest) (*bank.Transfer, error) {
	o.mu.Lock()
	o.TransferCalls = append(o.TransferCalls, req)
	o.mu.Unlock()
	if o.TransferErr != nil {
		return nil, o.TransferErr
	}
	return o.TransferResult, nil
}

// CreateQR implements bank.Ops.
func (o *Ops) CreateQR(_ context.Context, req bank.QRRequest) (string, error) {
	o.mu.Lock()
	o.QRCalls = append(o.QRCalls, req)
	o.mu.Unlock()
	if o.QRErr != nil {
		return "", o.QRErr
	}
	return o.QRCode, nil
}
