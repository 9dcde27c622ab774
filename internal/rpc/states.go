package rpc

import (
	"github.com/nekoproto/nekogo/internal/fsm"
	"github.com/nekoproto/nekogo/internal/logging"
)

// Peer lifecycle states and events, per the peer state machine:
// INIT -> READY -> DONE.
const (
	PeerStateInit  fsm.State = "INIT"
	PeerStateReady fsm.State = "READY"
	PeerStateDone  fsm.State = "DONE"

	PeerEventTransportSet fsm.Event = "TRANSPORT_SET"
	PeerEventClosed       fsm.Event = "CLOSED"
)

// Client-side per-call states and events: PENDING -> RESOLVED / REJECTED /
// FAILED.
const (
	CallStatePending  fsm.State = "PENDING"
	CallStateResolved fsm.State = "RESOLVED"
	CallStateRejected fsm.State = "REJECTED"
	CallStateFailed   fsm.State = "FAILED"

	CallEventIDMatched     fsm.Event = "ID_MATCHED"
	CallEventErrorReceived fsm.Event = "ERROR_RECEIVED"
	CallEventTransportFail fsm.Event = "TRANSPORT_FAIL"
)

// Server-side per-request states and events: RECEIVED -> ERROR_RESPONSE /
// (RUNNING -> RESPONSE / ABORTED).
const (
	RequestStateReceived      fsm.State = "RECEIVED"
	RequestStateErrorResponse fsm.State = "ERROR_RESPONSE"
	RequestStateRunning       fsm.State = "RUNNING"
	RequestStateResponse      fsm.State = "RESPONSE"
	RequestStateAborted       fsm.State = "ABORTED"

	RequestEventMethodUnknown fsm.Event = "METHOD_UNKNOWN"
	RequestEventSpawned       fsm.Event = "SPAWNED"
	RequestEventCompleted     fsm.Event = "COMPLETED"
	RequestEventCancelled     fsm.Event = "CANCELLED"
)

// newPeerFSM builds the INIT -> READY -> DONE machine shared by Client and
// Server.
func newPeerFSM(logger logging.Logger) (fsm.FSM, error) {
	builder := fsm.NewFSM(PeerStateInit, logger)
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{PeerStateInit}, Event: PeerEventTransportSet, To: PeerStateReady,
	})
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{PeerStateReady}, Event: PeerEventClosed, To: PeerStateDone,
	})
	if err := builder.Build(); err != nil {
		return nil, err
	}
	return builder, nil
}

// newCallFSM builds the per-request client-side machine for one in-flight
// call.
func newCallFSM(logger logging.Logger) (fsm.FSM, error) {
	builder := fsm.NewFSM(CallStatePending, logger)
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{CallStatePending}, Event: CallEventIDMatched, To: CallStateResolved,
	})
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{CallStatePending}, Event: CallEventErrorReceived, To: CallStateRejected,
	})
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{CallStatePending}, Event: CallEventTransportFail, To: CallStateFailed,
	})
	if err := builder.Build(); err != nil {
		return nil, err
	}
	return builder, nil
}

// newRequestFSM builds the per-request server-side machine.
func newRequestFSM(logger logging.Logger) (fsm.FSM, error) {
	builder := fsm.NewFSM(RequestStateReceived, logger)
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{RequestStateReceived}, Event: RequestEventMethodUnknown, To: RequestStateErrorResponse,
	})
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{RequestStateReceived}, Event: RequestEventSpawned, To: RequestStateRunning,
	})
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{RequestStateRunning}, Event: RequestEventCompleted, To: RequestStateResponse,
	})
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{RequestStateRunning}, Event: RequestEventCancelled, To: RequestStateAborted,
	})
	if err := builder.Build(); err != nil {
		return nil, err
	}
	return builder, nil
}
