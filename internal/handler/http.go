package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// handleRequest is the POST /handle wire body.
type handleRequest struct {
	Phone     string `json:"phone"`
	AccountID string `json:"account_id"`
	Text      string `json:"text"`
	Verified  bool   `json:"verified"`
}

// handleResponse is the POST /handle wire reply.
type handleResponse struct {
	Reply           string `json:"reply"`
	SessionVerified bool   `json:"session_verified"`
}

// ServeHandle is the POST /handle endpoint: route one utterance and return
// the reply. Collaborator unavailability maps to 502.
func (r *Router) ServeHandle(w http.ResponseWriter, req *http.Request) {
	var body handleRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if body.Phone == "" {
		http.Error(w, `{"error":"phone is required"}`, http.StatusBadRequest)
		return
	}

	res, err := r.Handle(req.Context(), Request{
		Phone:     body.Phone,
		AccountID: body.AccountID,
		Text:      body.Text,
		Verified:  body.Verified,
	})
	if err != nil {
		slog.Error("handle failed", "phone", body.Phone, "error", err)
		http.Error(w, `{"error":"upstream service unavailable"}`, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(handleResponse{
		Reply:           res.Reply,
		SessionVerified: res.SessionVerified,
	}); err != nil {
		slog.Error("encoding handle response", "error", err)
	}
}

// Register adds the /handle route to mux.
func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /handle", r.ServeHandle)
}
