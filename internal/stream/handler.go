package stream

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// Serve upgrades the request and runs it as a client of parishID until the
// connection closes. originPatterns follows websocket.AcceptOptions; a single
// "*" accepts any origin.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, parishID string, originPatterns []string) {
	opts := &ws.AcceptOptions{OriginPatterns: originPatterns}
	if len(originPatterns) == 1 && originPatterns[0] == "*" {
		opts = &ws.AcceptOptions{InsecureSkipVerify: true}
	}
	conn, err := ws.Accept(w, r, opts)
	if err != nil {
		h.log.Warn(r.Context(), "stream: accept websocket", err)
		return
	}
	defer conn.CloseNow()

	NewClient(h, conn, parishID).Run(r.Context())
}
