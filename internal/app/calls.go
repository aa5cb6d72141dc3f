package app

import (
	"net/http"

	"github.com/coder/websocket"

	"github.com/voxteller/voxteller/internal/bridge"
	"github.com/voxteller/voxteller/internal/observe"
)

// CallServer accepts telephony-leg websocket connections on /stream and
// hands each one to the bridge for the lifetime of the call.
type CallServer struct {
	bridge *bridge.Bridge
}

// ServeStream handles GET /stream. The connection carries binary audio
// frames interleaved with JSON control messages; the first frame must be
// the start control.
func (s *CallServer) ServeStream(w http.ResponseWriter, r *http.Request) {
	log := observe.Logger(r.Context())

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn("websocket accept failed", "error", err)
		return
	}

	leg := bridge.NewWebSocketLeg(conn)
	if err := s.bridge.Run(r.Context(), leg); err != nil {
		log.Warn("call ended abnormally", "error", err)
		_ = leg.Close(websocket.StatusInternalError, "call failed")
		return
	}
	_ = leg.Close(websocket.StatusNormalClosure, "call ended")
}

// Register adds the streaming route to mux.
func (s *CallServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /stream", s.ServeStream)
}
