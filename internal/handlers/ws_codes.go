// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Subprotocol is the websocket subprotocol both peers must negotiate.
const Subprotocol = "duo"

// Custom WebSocket close codes used by the table link.
const (
	BadSubprotocolError websocket.StatusCode = 3000 // Peer connected with an unsupported subprotocol.
	SeatTakenError      websocket.StatusCode = 3001 // The table already has its guest.
	TableClosedError    websocket.StatusCode = 3002 // The table is gone or could not deal.
)
