// internal/table/table.go
package table

import (
	"context"
	"errors"

	"github.com/jason-s-yu/duo/internal/models"
	"github.com/jason-s-yu/duo/internal/protocol"
)

// Seats. The host always plays seat 0.
const (
	HostSeat  = 0
	GuestSeat = 1
)

var (
	ErrLinkClosed   = errors.New("connection lost")
	ErrNotConnected = errors.New("no peer connected")
	ErrSeatTaken    = errors.New("table already has a guest")
)

// Link is a reliable, ordered, full-duplex channel to the other peer.
type Link interface {
	Send(ctx context.Context, m protocol.Message) error
	Close() error
}

// Peer receives the events of one link. OnClose is called once, with the cause
// when the link failed and ErrLinkClosed on an orderly close.
type Peer interface {
	OnOpen(ctx context.Context, link Link) error
	OnData(ctx context.Context, m protocol.Message)
	OnClose(err error)
}

// Recorder receives every committed transition on a host table.
type Recorder interface {
	Record(ctx context.Context, rec models.ActionRecord) error
}
