// Package state provides the room lifecycle machine. A room is either in the
// lobby or playing; the playing transition is one-way.
package state

import (
	"errors"
	"sync"

	"github.com/wfunc/loupgarou/logger"
)

const (
	StateLobby   = "lobby"
	StatePlaying = "playing"
)

// State is one phase of a room's life.
type State interface {
	OnEnter()
	OnExit()
	GetID() string
}

// Machine owns the current state and guards transitions.
type Machine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from, to string, condition func() bool)
}

// ErrTransitionNotAllowed is returned when a transition's guard rejects it.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// RoomContext is the slice of a room the states need.
type RoomContext interface {
	GetID() string
}

type BaseMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // from -> to -> guard
	mutex        sync.RWMutex
}

func NewBaseMachine(initialState State) *BaseMachine {
	machine := &BaseMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

func (sm *BaseMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	if guards, exists := sm.transitions[currentID]; exists {
		if guard, exists := guards[newID]; exists {
			if guard != nil && !guard() {
				return ErrTransitionNotAllowed
			}
		}
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()
	return nil
}

func (sm *BaseMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseMachine) AddTransition(from, to string, condition func() bool) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[from]; !exists {
		sm.transitions[from] = make(map[string]func() bool)
	}
	sm.transitions[from][to] = condition
}

type roomStateBase struct {
	id   string
	room RoomContext
}

func (s *roomStateBase) GetID() string { return s.id }
func (s *roomStateBase) OnEnter()      {}
func (s *roomStateBase) OnExit()       {}

// LobbyState accepts joins and waits for the start request.
type LobbyState struct {
	roomStateBase
}

func NewLobbyState(room RoomContext) *LobbyState {
	return &LobbyState{roomStateBase{id: StateLobby, room: room}}
}

func (s *LobbyState) OnEnter() {
	logger.Log.Infof("Room %s waiting for players", s.room.GetID())
}

// PlayingState accepts moves; there is no way back to the lobby.
type PlayingState struct {
	roomStateBase
}

func NewPlayingState(room RoomContext) *PlayingState {
	return &PlayingState{roomStateBase{id: StatePlaying, room: room}}
}

func (s *PlayingState) OnEnter() {
	logger.Log.Infof("Room %s game started", s.room.GetID())
}
