package services

import (
	"github.com/prepwise/backend/websocket"
)

// HubNotifier forwards session progress events to the websocket hub
type HubNotifier struct {
	hub *websocket.Hub
}

func NewHubNotifier(hub *websocket.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifySession(sessionID, event string, payload interface{}) {
	n.hub.PublishEvent(sessionID, event, payload)
}
