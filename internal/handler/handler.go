// Package handler implements the non-streaming request path: classify one
// utterance, dispatch to the matching domain collaborator, and produce the
// user-facing reply.
//
// Read and write intents pass through the verification gate. When a
// collaborator demands verification the router runs one simulated
// out-of-band challenge round through the [Verifier] and returns a message
// describing it; it never retries the original operation in the same
// call — the caller must re-submit.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/voxteller/voxteller/internal/intent"
	"github.com/voxteller/voxteller/internal/session"
	"github.com/voxteller/voxteller/pkg/collab/answer"
	"github.com/voxteller/voxteller/pkg/collab/bank"
	"github.com/voxteller/voxteller/pkg/collab/complaint"
	"github.com/voxteller/voxteller/pkg/collab/notify"
	"github.com/voxteller/voxteller/pkg/collab/retrieval"
)

// Demo constants from the simulated complaint flow: the upload link texted
// to the caller and the image URL the caller "replies" with.
const (
	uploadLink        = "https://example.com/upload"
	simulatedImageURL = "https://example.com/uploads/photo.jpg"
)

// replyRephrase is the fallback for utterances no branch could serve.
const replyRephrase = "I'm not sure I understood. Could you rephrase?"

// Request is one non-streaming utterance to route.
type Request struct {
	Phone     string
	AccountID string
	Text      string
	Verified  bool
}

// Response is the routing outcome.
type Response struct {
	// Reply is the user-facing message to speak or display.
	Reply string

	// SessionVerified is the session's verification state after routing.
	SessionVerified bool
}

// Config wires a Router's collaborators.
type Config struct {
	Sessions   *session.Store
	Bank       bank.Ops
	Answer     answer.Provider
	Retrieval  retrieval.Provider
	Notify     notify.Sender
	Complaints complaint.Lodger

	// Verifier runs the simulated challenge round. Defaults to
	// [AutoVerifier] over Sessions and Notify.
	Verifier Verifier
}

// Router dispatches classified utterances to domain collaborators.
// Safe for concurrent use.
type Router struct {
	sessions   *session.Store
	bank       bank.Ops
	answer     answer.Provider
	retrieval  retrieval.Provider
	notify     notify.Sender
	complaints complaint.Lodger
	verifier   Verifier
}

// New creates a Router from cfg. All collaborators except Verifier are
// required.
func New(cfg Config) *Router {
	r := &Router{
		sessions:   cfg.Sessions,
		bank:       cfg.Bank,
		answer:     cfg.Answer,
		retrieval:  cfg.Retrieval,
		notify:     cfg.Notify,
		complaints: cfg.Complaints,
		verifier:   cfg.Verifier,
	}
	if r.verifier == nil {
		r.verifier = &AutoVerifier{Sessions: cfg.Sessions, Notify: cfg.Notify}
	}
	return r
}

// Handle routes one utterance. A non-nil error means a collaborator was
// unavailable; verification demands and fraud rejections are ordinary
// replies, not errors.
func (r *Router) Handle(ctx context.Context, req Request) (Response, error) {
	sess := r.sessions.GetOrCreate(req.Phone, req.AccountID, req.Verified)
	in := intent.Classify(req.Text)
	slog.Info("routing utterance",
		"phone", req.Phone, "intent", in, "verified", sess.Verified)

	var (
		reply string
		err   error
	)
	switch in {
	case intent.General:
		reply, err = r.answer.Answer(ctx, req.Text, nil)
	case intent.Offers:
		reply, err = r.retrieval.Query(ctx, req.Text)
	case intent.Read:
		reply, err = r.handleRead(ctx, sess, req.Text)
	case intent.Write:
		reply, err = r.handleWrite(ctx, sess, req.Text)
	case intent.Complaint:
		reply, err = r.handleComplaint(ctx, sess, req.Text)
	case intent.QR:
		reply, err = r.handleQR(ctx, sess, req.Text)
	default:
		reply = replyRephrase
	}
	if err != nil {
		return Response{}, err
	}

	// The verifier may have flipped the session during this call.
	cur, _ := r.sessions.Get(req.Phone)
	return Response{Reply: reply, SessionVerified: cur.Verified}, nil
}

func (r *Router) handleRead(ctx context.Context, sess session.Session, text string) (string, error) {
	res, err := r.bank.ReadQuery(ctx, bank.ReadRequest{
		UserText:  text,
		AccountID: sess.AccountID,
		Verified:  sess.Verified,
	})
	if kind, ok := bank.NeedsVerification(err); ok {
		return r.challenge(ctx, sess, kind)
	}
	if err != nil {
		return "", fmt.Errorf("handler: read query: %w", err)
	}

	switch res.Type {
	case bank.ReadTransactions:
		return fmt.Sprintf("Your last %d transactions have been sent to your phone via SMS.", len(res.Items)), nil
	case bank.ReadBalance:
		return fmt.Sprintf("Your current balance is $%.2f.", res.Amount), nil
	default:
		return "I couldn't find that information.", nil
	}
}

func (r *Router) handleWrite(ctx context.Context, sess session.Session, text string) (string, error) {
	tr := intent.ParseTransfer(text)
	res, err := r.bank.Transfer(ctx, bank.TransferRequest{
		FromAccount: sess.AccountID,
		ToAccount:   tr.Counterparty,
		Amount:      tr.Amount,
		Verified:    sess.Verified,
	})
	if kind, ok := bank.NeedsVerification(err); ok {
		return r.challenge(ctx, sess, kind)
	}
	var rej *bank.RejectedError
	if errors.As(err, &rej) {
		return fmt.Sprintf("Sorry, this transfer was blocked: %s", rej.Reason), nil
	}
	if err != nil {
		return "", fmt.Errorf("handler: transfer: %w", err)
	}
	return fmt.Sprintf("Transferred $%.2f to %s.", res.Amount, res.Counterparty), nil
}

func (r *Router) handleComplaint(ctx context.Context, sess session.Session, text string) (string, error) {
	// Text the upload link, then lodge with the caller's simulated photo
	// reply. Notification failures are logged, never surfaced.
	r.send(ctx, notify.Message{
		To:   sess.Phone,
		Body: "Please upload a photo here: " + uploadLink,
	})

	id, err := r.complaints.Lodge(ctx, sess.Phone, text, simulatedImageURL)
	if err != nil {
		return "", fmt.Errorf("handler: lodge complaint: %w", err)
	}
	return fmt.Sprintf("Your complaint #%s has been filed. We'll be in touch.", id), nil
}

func (r *Router) handleQR(ctx context.Context, sess session.Session, text string) (string, error) {
	amt := intent.ParseQRAmount(text)
	code, err := r.bank.CreateQR(ctx, bank.QRRequest{
		AccountID: sess.AccountID,
		Amount:    amt,
		Verified:  sess.Verified,
	})
	if kind, ok := bank.NeedsVerification(err); ok {
		return r.challenge(ctx, sess, kind)
	}
	var rej *bank.RejectedError
	if errors.As(err, &rej) {
		return fmt.Sprintf("Cannot create QR code: %s", rej.Reason), nil
	}
	if err != nil {
		return "", fmt.Errorf("handler: create qr: %w", err)
	}

	r.send(ctx, notify.Message{
		To:       sess.Phone,
		Body:     "Here is your QR code",
		MediaURL: "data:qr;base64," + code,
	})
	return fmt.Sprintf("A QR code for $%.2f was sent via SMS.", amt), nil
}

// challenge records the pending kind and runs one verification round. The
// original operation is not retried.
func (r *Router) challenge(ctx context.Context, sess session.Session, kind bank.VerificationKind) (string, error) {
	sk := session.VerificationKind(kind)
	r.sessions.RequestVerification(sess.Phone, sk)
	reply, err := r.verifier.Challenge(ctx, sess, sk)
	if err != nil {
		return "", fmt.Errorf("handler: verification challenge: %w", err)
	}
	return reply, nil
}

// send delivers a fire-and-forget notification.
func (r *Router) send(ctx context.Context, msg notify.Message) {
	if err := r.notify.Send(ctx, msg); err != nil {
		slog.Warn("notification send failed", "to", msg.To, "error", err)
	}
}
