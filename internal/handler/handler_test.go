package handler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxteller/voxteller/internal/session"
	answermock "github.com/voxteller/voxteller/pkg/collab/answer/mock"
	"github.com/voxteller/voxteller/pkg/collab/bank"
	bankmock "github.com/voxteller/voxteller/pkg/collab/bank/mock"
	complaintmock "github.com/voxteller/voxteller/pkg/collab/complaint/mock"
	notifymock "github.com/voxteller/voxteller/pkg/collab/notify/mock"
	retrievalmock "github.com/voxteller/voxteller/pkg/collab/retrieval/mock"
)

type fixture struct {
	router     *Router
	sessions   *session.Store
	bank       *bankmock.Ops
	answer     *answermock.Provider
	retrieval  *retrievalmock.Provider
	notify     *notifymock.Sender
	complaints *complaintmock.Lodger
}

func newFixture(verifier Verifier) *fixture {
	f := &fixture{
		sessions:   session.NewStore(),
		bank:       &bankmock.Ops{},
		answer:     &answermock.Provider{Reply: "llm answer"},
		retrieval:  &retrievalmock.Provider{Answer: "offers answer"},
		notify:     &notifymock.Sender{},
		complaints: &complaintmock.Lodger{ID: "C123"},
	}
	f.router = New(Config{
		Sessions:   f.sessions,
		Bank:       f.bank,
		Answer:     f.answer,
		Retrieval:  f.retrieval,
		Notify:     f.notify,
		Complaints: f.complaints,
		Verifier:   verifier,
	})
	return f
}

func (f *fixture) handle(t *testing.T, text string, verified bool) Response {
	t.Helper()
	res, err := f.router.Handle(context.Background(), Request{
		Phone:     "+15550100",
		AccountID: "acct-1",
		Text:      text,
		Verified:  verified,
	})
	if err != nil {
		t.Fatalf("Handle(%q): %v", text, err)
	}
	return res
}

func TestGeneralIntent(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)

	res := f.handle(t, "what are your opening hours", false)
	if res.Reply != "llm answer" {
		t.Fatalf("reply = %q, want llm answer", res.Reply)
	}
	if f.answer.CallCount() != 1 {
		t.Fatalf("answer called %d times, want 1", f.answer.CallCount())
	}
}

func TestOffersIntent(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)

	res := f.handle(t, "any offers on a loan", false)
	if res.Reply != "offers answer" {
		t.Fatalf("reply = %q", res.Reply)
	}
	if len(f.retrieval.Questions) != 1 || f.retrieval.Questions[0] != "any offers on a loan" {
		t.Fatalf("retrieval questions = %v", f.retrieval.Questions)
	}
}

func TestReadBalance(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)
	f.bank.ReadResult = &bank.ReadResult{Type: bank.ReadBalance, Amount: 1000}

	res := f.handle(t, "what is my balance", true)
	if res.Reply != "Your current balance is $1000.00." {
		t.Fatalf("reply = %q", res.Reply)
	}
	if req := f.bank.ReadCalls[0]; req.AccountID != "acct-1" || !req.Verified {
		t.Fatalf("read request = %+v", req)
	}
}

func TestReadTransactions(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)
	f.bank.ReadResult = &bank.ReadResult{
		Type:  bank.ReadTransactions,
		Items: []bank.Transaction{{ID: 1}, {ID: 2}, {ID: 3}},
	}

	res := f.handle(t, "show my last transactions", true)
	want := "Your last 3 transactions have been sent to your phone via SMS."
	if res.Reply != want {
		t.Fatalf("reply = %q, want %q", res.Reply, want)
	}
}

func TestReadUnknownResult(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)
	f.bank.ReadResult = &bank.ReadResult{Type: bank.ReadUnknown}

	res := f.handle(t, "what's my balance in gold", true)
	if res.Reply != "I couldn't find that information." {
		t.Fatalf("reply = %q", res.Reply)
	}
}

// Unverified balance query triggers a read verification round; the
// re-submitted query then succeeds with verified=true.
func TestReadVerificationRound(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)
	f.bank.ReadErr = &bank.VerificationError{Kind: bank.KindRead}

	res := f.handle(t, "what is my balance", false)
	want := "For your security, we sent you a verification code (OTP). Please reply with the code to continue."
	if res.Reply != want {
		t.Fatalf("reply = %q, want %q", res.Reply, want)
	}
	if !res.SessionVerified {
		t.Fatal("auto verifier should confirm the session")
	}
	msgs := f.notify.Messages()
	if len(msgs) != 1 || msgs[0].Body != "Enter OTP to proceed: 123456" {
		t.Fatalf("otp messages = %+v", msgs)
	}
	// The original operation was not retried in the same call.
	if len(f.bank.ReadCalls) != 1 {
		t.Fatalf("read called %d times, want 1", len(f.bank.ReadCalls))
	}

	// Re-submit.
	f.bank.ReadErr = nil
	f.bank.ReadResult = &bank.ReadResult{Type: bank.ReadBalance, Amount: 42.5}
	res = f.handle(t, "what is my balance", false)
	if res.Reply != "Your current balance is $42.50." {
		t.Fatalf("reply after verification = %q", res.Reply)
	}
	if req := f.bank.ReadCalls[1]; !req.Verified {
		t.Fatal("re-submitted read should carry verified=true")
	}
}

func TestTransferOK(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)
	f.bank.TransferResult = &bank.Transfer{ID: 7, Counterparty: "bob", Amount: 50}

	res := f.handle(t, "transfer 50 to bob", true)
	if res.Reply != "Transferred $50.00 to bob." {
		t.Fatalf("reply = %q", res.Reply)
	}
	req := f.bank.TransferCalls[0]
	if req.FromAccount != "acct-1" || req.ToAccount != "bob" || req.Amount != 50 {
		t.Fatalf("transfer request = %+v", req)
	}
}

func TestTransferBlocked(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)
	f.bank.TransferErr = &bank.RejectedError{
		Reason: "Amount 2500.00 exceeds threshold 2000.00",
	}

	res := f.handle(t, "transfer 2500 to bob", true)
	want := "Sorry, this transfer was blocked: Amount 2500.00 exceeds threshold 2000.00"
	if res.Reply != want {
		t.Fatalf("reply = %q, want %q", res.Reply, want)
	}
}

func TestWriteVerificationRound(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)
	f.bank.TransferErr = &bank.VerificationError{Kind: bank.KindWrite}

	res := f.handle(t, "transfer 50 to bob", false)
	if res.Reply != "We sent a verification code by SMS. Please reply to continue." {
		t.Fatalf("reply = %q", res.Reply)
	}
	msgs := f.notify.Messages()
	if len(msgs) != 1 || msgs[0].Body != "Enter OTP to confirm transfer: 654321" {
		t.Fatalf("otp messages = %+v", msgs)
	}
	sess, _ := f.sessions.Get("+15550100")
	if !sess.Verified || sess.Pending != session.KindNone {
		t.Fatalf("session after round = %+v", sess)
	}
}

func TestComplaintFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)

	res := f.handle(t, "I have a problem with a charge", false)
	if res.Reply != "Your complaint #C123 has been filed. We'll be in touch." {
		t.Fatalf("reply = %q", res.Reply)
	}
	msgs := f.notify.Messages()
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0].Body, "Please upload a photo here: ") {
		t.Fatalf("upload link messages = %+v", msgs)
	}
	call := f.complaints.Calls[0]
	if call.Phone != "+15550100" || call.ImageURL == "" {
		t.Fatalf("lodge call = %+v", call)
	}
}

func TestQRFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)
	f.bank.QRCode = "UVItREFUQQ=="

	res := f.handle(t, "qr code for 20", true)
	if res.Reply != "A QR code for $20.00 was sent via SMS." {
		t.Fatalf("reply = %q", res.Reply)
	}
	if req := f.bank.QRCalls[0]; req.Amount != 20 || req.AccountID != "acct-1" {
		t.Fatalf("qr request = %+v", req)
	}
	msgs := f.notify.Messages()
	if len(msgs) != 1 || msgs[0].MediaURL != "data:qr;base64,UVItREFUQQ==" {
		t.Fatalf("qr messages = %+v", msgs)
	}
}

func TestQRRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)
	f.bank.QRErr = &bank.RejectedError{Reason: "consent missing"}

	res := f.handle(t, "qr code for 20", true)
	if res.Reply != "Cannot create QR code: consent missing" {
		t.Fatalf("reply = %q", res.Reply)
	}
}

// A custom verifier observes the challenge and controls confirmation.
func TestCustomVerifier(t *testing.T) {
	t.Parallel()
	v := &recordingVerifier{reply: "please call the branch"}
	f := newFixture(v)
	f.bank.ReadErr = &bank.VerificationError{Kind: bank.KindRead}

	res := f.handle(t, "what is my balance", false)
	if res.Reply != "please call the branch" {
		t.Fatalf("reply = %q", res.Reply)
	}
	if res.SessionVerified {
		t.Fatal("custom verifier did not confirm; session must stay unverified")
	}
	if v.kind != session.KindRead {
		t.Fatalf("verifier saw kind %q, want read", v.kind)
	}
	sess, _ := f.sessions.Get("+15550100")
	if sess.Pending != session.KindRead {
		t.Fatalf("pending = %q, want read", sess.Pending)
	}
}

type recordingVerifier struct {
	reply string
	kind  session.VerificationKind
}

func (v *recordingVerifier) Challenge(_ context.Context, _ session.Session, kind session.VerificationKind) (string, error) {
	v.kind = kind
	return v.reply, nil
}

func TestCollaboratorUnavailable(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)
	f.bank.ReadErr = errors.New("connection refused")

	_, err := f.router.Handle(context.Background(), Request{
		Phone: "+15550100", AccountID: "acct-1", Text: "balance", Verified: true,
	})
	if err == nil {
		t.Fatal("unavailable collaborator should surface as an error")
	}
}

func TestNotifyFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	f := newFixture(nil)
	f.notify.Err = errors.New("gateway down")
	f.bank.QRCode = "Q"

	res := f.handle(t, "qr for 5", true)
	if res.Reply != "A QR code for $5.00 was sent via SMS." {
		t.Fatalf("reply = %q", res.Reply)
	}
}
