// internal/handlers/table_ws.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/duo/internal/auth"
	"github.com/jason-s-yu/duo/internal/middleware"
	"github.com/jason-s-yu/duo/internal/table"
	"github.com/sirupsen/logrus"
)

// TableServer exposes the host tables of this process to guests.
type TableServer struct {
	Store     *table.Store
	Invites   *auth.Invites
	Logger    *logrus.Logger
	Link      LinkOptions
	PublicURL string // base URL guests dial, e.g. ws://192.168.1.5:8080
}

// Routes returns the HTTP handler for the table endpoints, wrapped in request logging.
func (s *TableServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /table/ws/{id}", s.TableWSHandler)
	mux.HandleFunc("GET /table/qr/{id}", s.TableQRHandler)
	return middleware.LogMiddleware(s.Logger)(mux)
}

// InviteURL returns the websocket URL a guest dials to join the table.
func (s *TableServer) InviteURL(tableID uuid.UUID) (string, error) {
	token, err := s.Invites.Create(tableID)
	if err != nil {
		return "", fmt.Errorf("create invite: %w", err)
	}
	base := strings.TrimSuffix(s.PublicURL, "/")
	return fmt.Sprintf("%s/table/ws/%s?invite=%s", base, tableID, url.QueryEscape(token)), nil
}

// lookup resolves the table in the path, writing an HTTP error when it cannot.
func (s *TableServer) lookup(w http.ResponseWriter, r *http.Request) (*table.Host, bool) {
	tableID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid table id format", http.StatusBadRequest)
		return nil, false
	}
	h, ok := s.Store.Get(tableID)
	if !ok {
		http.Error(w, "Table not found", http.StatusNotFound)
		return nil, false
	}
	if h.Err() != nil {
		http.Error(w, "Table has closed", http.StatusGone)
		return nil, false
	}
	return h, true
}

// TableWSHandler upgrades a guest's connection for /table/ws/{id}. The invite
// must be signed by this process and name the same table.
func (s *TableServer) TableWSHandler(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	invitedID, err := s.Invites.Verify(inviteToken(r))
	if err != nil || invitedID != h.ID {
		s.Logger.Warnf("rejected invite for table %s from %s: %v", h.ID, r.RemoteAddr, err)
		http.Error(w, "Invalid invite", http.StatusForbidden)
		return
	}
	if h.Connected() {
		http.Error(w, "Table already has a guest", http.StatusConflict)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Logger.Warnf("WebSocket accept error for table %s: %v", h.ID, err)
		return
	}
	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, fmt.Sprintf("client must speak the %s subprotocol", Subprotocol))
		return
	}

	logger := s.Logger.WithField("table", h.ID)
	middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
	err = Serve(r.Context(), c, h, s.Link, logger)
	middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
}

// Dial connects a guest to the invite URL and blocks until the link ends.
func Dial(ctx context.Context, inviteURL string, guest *table.Guest, opts LinkOptions, logger *logrus.Logger) error {
	c, _, err := websocket.Dial(ctx, inviteURL, &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		guest.OnClose(err)
		return fmt.Errorf("dial table: %w", err)
	}
	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, fmt.Sprintf("host must speak the %s subprotocol", Subprotocol))
		err := fmt.Errorf("host negotiated subprotocol %q", c.Subprotocol())
		guest.OnClose(err)
		return err
	}
	return Serve(ctx, c, guest, opts, logger.WithField("role", "guest"))
}
