package core

import "errors"

//go:generate mockgen -destination=mocks/signal_mock.go -package=mocks . SignalConnection

var (
	ErrBackpressure     = errors.New("backpressure")
	ErrConnectionClosed = errors.New("connection closed")
)

// Frame is a raw encoded event.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend never blocks: a full queue yields ErrBackpressure.
	TrySend(Frame) error
	Close()
}
