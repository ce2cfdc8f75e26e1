package room

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/loupgarou/game"
	"github.com/wfunc/loupgarou/logger"
	"github.com/wfunc/loupgarou/models"
	"github.com/wfunc/loupgarou/network"
	"github.com/wfunc/loupgarou/persistence"
	"github.com/wfunc/loupgarou/session"
	"github.com/wfunc/loupgarou/state"
)

var (
	ErrGameStarted      = errors.New("game already started")
	ErrNameTaken        = errors.New("player name already taken")
	ErrNotEnoughPlayers = errors.New("not enough players")
)

// Options carries the tunables a room is built with.
type Options struct {
	GridSize   int
	MinPlayers int
	// DB, when non-nil, receives a record of every finished match.
	DB persistence.Database
}

// Room is one game instance. All mutation goes through its mutex; handlers
// for different connections call into the same room concurrently.
type Room struct {
	ID string

	board       *game.Board
	machine     state.Machine
	sessions    map[string]*session.Session // session ID -> session
	joinOrder   []string                    // session IDs, join order
	turn        string                      // session ID holding the cursor, "" = no turn
	announced   map[string]bool             // player names whose death was broadcast
	gameOver    bool
	minPlayers  int
	startedAt   time.Time
	createdAt   time.Time
	broadcaster Broadcaster
	db          persistence.Database

	mu sync.Mutex
}

func NewRoom(id string, opts Options, broadcaster Broadcaster) *Room {
	if opts.GridSize == 0 {
		opts.GridSize = game.DefaultSize
	}
	if opts.MinPlayers == 0 {
		opts.MinPlayers = 4
	}
	r := &Room{
		ID:          id,
		board:       game.NewBoard(opts.GridSize),
		sessions:    make(map[string]*session.Session),
		announced:   make(map[string]bool),
		minPlayers:  opts.MinPlayers,
		createdAt:   time.Now(),
		broadcaster: broadcaster,
		db:          opts.DB,
	}
	r.machine = state.NewBaseMachine(state.NewLobbyState(r))
	// Playing is terminal.
	r.machine.AddTransition(state.StatePlaying, state.StateLobby, func() bool { return false })
	return r
}

// GetID implements state.RoomContext.
func (r *Room) GetID() string { return r.ID }

// Started reports whether the game has begun. One-way.
func (r *Room) Started() bool {
	return r.machine.GetCurrentState().GetID() == state.StatePlaying
}

// Join registers a player. The game must not have started and the name must
// be free within the room. On failure the requester gets an error message
// and the error is returned so the caller skips registry binding.
func (r *Room) Join(sess *session.Session, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Started() {
		r.broadcaster.SendTo(sess, network.NewError("La partie a déjà commencé."))
		return ErrGameStarted
	}
	for _, s := range r.sessions {
		if s.Name() == name {
			r.broadcaster.SendTo(sess, network.NewError("Ce nom est déjà pris."))
			return ErrNameTaken
		}
	}

	sess.SetName(name)
	sess.SetGameID(r.ID)
	r.sessions[sess.ID] = sess
	r.joinOrder = append(r.joinOrder, sess.ID)

	r.broadcastLocked(network.NewSystemChat(fmt.Sprintf("%s a rejoint la partie!", name)))
	r.broadcastLocked(network.NewPlayerList(r.playerNamesLocked()))
	return nil
}

// Start assigns roles, places everyone on the board, and opens the first
// turn. Failures are reported to the requester only.
func (r *Room) Start(sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Started() {
		r.broadcaster.SendTo(sess, network.NewError("La partie a déjà commencé."))
		return ErrGameStarted
	}
	if len(r.joinOrder) < r.minPlayers {
		r.broadcaster.SendTo(sess, network.NewError(
			fmt.Sprintf("Il faut au moins %d joueurs pour commencer la partie.", r.minPlayers)))
		return ErrNotEnoughPlayers
	}

	// ceil(n/4) wolves, at least one.
	shuffled := append([]string(nil), r.joinOrder...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	wolves := (len(shuffled) + 3) / 4

	for i, sid := range shuffled {
		member := r.sessions[sid]
		role := game.RoleVillager
		if i < wolves {
			role = game.RoleWolf
		}
		if !r.board.AddPlayer(member.Name(), role) {
			logger.Log.Errorf("Room %s: failed to place player %s", r.ID, member.Name())
		}
		r.broadcaster.SendTo(member, network.NewRoleAssignment(role))
	}

	r.turn = r.joinOrder[0]
	r.startedAt = time.Now()
	if err := r.machine.ChangeState(state.NewPlayingState(r)); err != nil {
		return err
	}

	r.broadcastLocked(network.NewSystemChat("La partie commence!"))
	r.broadcastStateLocked()
	return nil
}

// Move applies a move for the session holding the turn cursor. Out-of-turn
// and invalid moves are dropped silently.
func (r *Room) Move(sess *session.Session, direction int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.Started() || r.turn != sess.ID {
		return
	}
	if !r.board.Move(sess.Name(), direction) {
		return
	}

	r.announceDeathsLocked()
	r.checkGameOverLocked()
	r.advanceTurnLocked()
	r.broadcastStateLocked()
}

// Chat relays a chat line to every member.
func (r *Room) Chat(player, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(network.NewChat(player, content))
}

// Leave removes a player and reports whether the room is now empty. Safe to
// call for a session that already left.
func (r *Room) Leave(sess *session.Session) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sess.ID]; !ok {
		return len(r.sessions) == 0
	}

	name := sess.Name()
	sess.SetGameID("")
	delete(r.sessions, sess.ID)
	for i, sid := range r.joinOrder {
		if sid == sess.ID {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}
	r.board.RemovePlayer(name)

	r.broadcastLocked(network.NewSystemChat(fmt.Sprintf("%s a quitté la partie.", name)))
	r.broadcastLocked(network.NewPlayerList(r.playerNamesLocked()))

	if r.turn == sess.ID {
		r.turn = ""
		for _, sid := range r.joinOrder {
			if r.board.IsAlive(r.sessions[sid].Name()) {
				r.turn = sid
				break
			}
		}
		if r.Started() && len(r.sessions) > 0 {
			r.broadcastStateLocked()
		}
	}

	return len(r.sessions) == 0
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Summary snapshots the room for the admin interface.
func (r *Room) Summary() models.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.RoomSummary{
		ID:            r.ID,
		Players:       r.playerNamesLocked(),
		Started:       r.Started(),
		CurrentPlayer: r.currentPlayerNameLocked(),
		CreatedAt:     r.createdAt,
	}
}

// announceDeathsLocked broadcasts one system line per death that has not
// been announced yet. Running the scan twice never duplicates a line.
func (r *Room) announceDeathsLocked() {
	for _, p := range r.board.Players() {
		if !p.Alive && !r.announced[p.Name] {
			r.announced[p.Name] = true
			r.broadcastLocked(network.NewSystemChat(fmt.Sprintf("%s est mort !", p.Name)))
		}
	}
}

// checkGameOverLocked declares the wolves' victory once no living villager
// remains, and archives the match.
func (r *Room) checkGameOverLocked() {
	if r.gameOver {
		return
	}
	for _, p := range r.board.Players() {
		if p.Alive && p.Role == game.RoleVillager {
			return
		}
	}
	r.gameOver = true
	r.broadcastLocked(network.NewSystemChat("Tous les villageois sont morts. Les loups ont gagné !"))
	r.archiveMatchLocked()
}

func (r *Room) archiveMatchLocked() {
	if r.db == nil {
		return
	}
	record := &models.GameRecord{
		RoomID:    r.ID,
		Winner:    models.WinnerWolves,
		StartedAt: r.startedAt,
		EndedAt:   time.Now(),
	}
	for _, p := range r.board.Players() {
		outcome := models.OutcomeLose
		if p.Role == game.RoleWolf {
			outcome = models.OutcomeWin
		}
		record.Players = append(record.Players, models.MatchPlayer{
			Name:    p.Name,
			Role:    p.Role,
			Outcome: outcome,
		})
	}
	// The archive is off the hot path; never block the room on the database.
	go func() {
		if err := r.db.SaveGameRecord(record); err != nil {
			logger.Log.Errorf("Room %s: failed to archive match: %v", r.ID, err)
		}
	}()
}

// advanceTurnLocked hands the cursor to the next living player in join
// order, wrapping past the mover. With nobody alive the cursor goes empty
// and the game is effectively over.
func (r *Room) advanceTurnLocked() {
	n := len(r.joinOrder)
	if n == 0 {
		r.turn = ""
		return
	}
	start := 0
	for i, sid := range r.joinOrder {
		if sid == r.turn {
			start = i
			break
		}
	}
	for step := 1; step <= n; step++ {
		sid := r.joinOrder[(start+step)%n]
		if r.board.IsAlive(r.sessions[sid].Name()) {
			r.turn = sid
			return
		}
	}
	r.turn = ""
}

// broadcastStateLocked sends each member its personalized view.
func (r *Room) broadcastStateLocked() {
	current := r.currentPlayerNameLocked()
	for sid, sess := range r.sessions {
		status := game.StatusDead
		if r.board.IsAlive(sess.Name()) {
			status = game.StatusAlive
		}
		r.broadcaster.SendTo(sess, &network.GameStateMessage{
			Type:          network.TypeGameState,
			Environment:   r.board.Environment(sess.Name()),
			IsYourTurn:    sid == r.turn,
			PlayerStatus:  status,
			CurrentPlayer: current,
		})
	}
}

func (r *Room) broadcastLocked(v any) {
	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.broadcaster.Broadcast(sessions, v)
}

func (r *Room) playerNamesLocked() []string {
	names := make([]string, 0, len(r.joinOrder))
	for _, sid := range r.joinOrder {
		names = append(names, r.sessions[sid].Name())
	}
	return names
}

func (r *Room) currentPlayerNameLocked() string {
	if r.turn == "" {
		return ""
	}
	if s, ok := r.sessions[r.turn]; ok {
		return s.Name()
	}
	return ""
}
