package app

import "github.com/dkeye/Meet/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropEvent
	Disconnect
)

// Policy decides what happens to an endpoint whose send queue is full.
type Policy interface {
	OnBackPressure(sid domain.EndpointID) BackpressureAction
}

// SimplePolicy disconnects slow consumers; their departure runs the normal leave path.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.EndpointID) BackpressureAction {
	return Disconnect
}
