package rpc

import (
	"context"

	"github.com/nekoproto/nekogo/internal/fsm"
	"github.com/nekoproto/nekogo/internal/logging"
)

// peerState wraps the INIT -> READY -> DONE peer lifecycle FSM shared by
// Client and Server.
type peerState struct {
	machine fsm.FSM
}

func newPeerState(logger logging.Logger) (*peerState, error) {
	m, err := newPeerFSM(logger)
	if err != nil {
		return nil, err
	}
	return &peerState{machine: m}, nil
}

func (p *peerState) setTransport() error {
	return p.machine.Transition(context.Background(), PeerEventTransportSet, nil)
}

func (p *peerState) close() error {
	return p.machine.Transition(context.Background(), PeerEventClosed, nil)
}

func (p *peerState) state() fsm.State {
	return p.machine.CurrentState()
}
