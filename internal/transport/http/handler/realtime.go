package handler

import "net/http"

// WebsocketServer attaches an upgraded connection to a viewer.
type WebsocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, viewerID string)
}

// RealtimeHandler upgrades authenticated requests to the recompute channel.
type RealtimeHandler struct {
	ws WebsocketServer
}

func NewRealtimeHandler(ws WebsocketServer) *RealtimeHandler { return &RealtimeHandler{ws: ws} }

func (h *RealtimeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	h.ws.ServeWS(w, r, userID)
}
