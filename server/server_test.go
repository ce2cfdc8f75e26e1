package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/loupgarou/config"
	"github.com/wfunc/loupgarou/game"
	"github.com/wfunc/loupgarou/network"
)

type wireMessage struct {
	Type          string   `json:"type"`
	Players       []string `json:"players"`
	Player        string   `json:"player"`
	Content       string   `json:"content"`
	Role          string   `json:"role"`
	Environment   []string `json:"environment"`
	IsYourTurn    bool     `json:"is_your_turn"`
	PlayerStatus  string   `json:"player_status"`
	CurrentPlayer string   `json:"current_player"`
}

type testClient struct {
	conn net.Conn
	dec  *json.Decoder
}

func startTestServer(t *testing.T) *GameServer {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.TCPAddress = "127.0.0.1:0"
	cfg.Server.SendTimeout = 2 * time.Second
	cfg.Game.GridSize = 7
	cfg.Game.MinPlayers = 4

	s := NewGameServer(cfg, nil)
	require.NoError(t, s.ListenTCP())
	go s.Serve()
	t.Cleanup(s.Shutdown)
	return s
}

func dialClient(t *testing.T, s *GameServer) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{
		conn: conn,
		dec:  json.NewDecoder(bufio.NewReader(conn)),
	}
}

func (c *testClient) send(t *testing.T, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	_, err = c.conn.Write(append(data, '\n'))
	require.NoError(t, err)
}

// waitFor reads messages until match accepts one, failing on timeout.
func (c *testClient) waitFor(t *testing.T, what string, match func(*wireMessage) bool) *wireMessage {
	t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg wireMessage
		if err := c.dec.Decode(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		if match(&msg) {
			return &msg
		}
	}
}

func isType(msgType string) func(*wireMessage) bool {
	return func(m *wireMessage) bool { return m.Type == msgType }
}

func TestServer_FourPlayerGameStart(t *testing.T) {
	s := startTestServer(t)

	clients := make([]*testClient, 4)
	for i := range clients {
		clients[i] = dialClient(t, s)
		clients[i].send(t, &network.ClientMessage{
			Type:   network.TypeConnection,
			Name:   fmt.Sprintf("player%d", i),
			GameID: "g1",
		})
		// Wait for our own join to be reflected before the next client
		// connects, keeping the join order deterministic.
		clients[i].waitFor(t, "player_list", func(m *wireMessage) bool {
			return m.Type == network.TypePlayerList && len(m.Players) == i+1
		})
	}

	// The fourth join reaches every member.
	for i, c := range clients[:3] {
		list := c.waitFor(t, "full player_list", func(m *wireMessage) bool {
			return m.Type == network.TypePlayerList && len(m.Players) == 4
		})
		assert.Equal(t, []string{"player0", "player1", "player2", "player3"}, list.Players,
			"client %d sees the join-ordered list", i)
	}

	clients[0].send(t, &network.ClientMessage{Type: network.TypeStartGame, GameID: "g1"})

	wolves := 0
	for _, c := range clients {
		role := c.waitFor(t, "role_assignment", isType(network.TypeRoleAssignment))
		switch role.Role {
		case game.RoleWolf:
			wolves++
		case game.RoleVillager:
		default:
			t.Fatalf("unexpected role %q", role.Role)
		}
	}
	assert.Equal(t, 1, wolves, "4 players yield exactly one wolf")

	yourTurn := 0
	for i, c := range clients {
		st := c.waitFor(t, "game_state", isType(network.TypeGameState))
		assert.Len(t, st.Environment, 49, "client %d gets the full grid", i)
		assert.Equal(t, game.StatusAlive, st.PlayerStatus)
		assert.Equal(t, "player0", st.CurrentPlayer)
		if st.IsYourTurn {
			yourTurn++
		}
	}
	assert.Equal(t, 1, yourTurn, "exactly one member holds the turn")
}

func TestServer_StartWithTooFewPlayers(t *testing.T) {
	s := startTestServer(t)

	c := dialClient(t, s)
	c.send(t, &network.ClientMessage{Type: network.TypeConnection, Name: "anna", GameID: "g2"})
	c.waitFor(t, "player_list", isType(network.TypePlayerList))

	c.send(t, &network.ClientMessage{Type: network.TypeStartGame, GameID: "g2"})
	errMsg := c.waitFor(t, "error", isType(network.TypeError))
	assert.Contains(t, errMsg.Content, "4", "the threshold is reported back")
}

func TestServer_DisconnectIsIdempotent(t *testing.T) {
	s := startTestServer(t)

	stayer := dialClient(t, s)
	stayer.send(t, &network.ClientMessage{Type: network.TypeConnection, Name: "stayer", GameID: "g3"})
	stayer.waitFor(t, "player_list", isType(network.TypePlayerList))

	leaver := dialClient(t, s)
	leaver.send(t, &network.ClientMessage{Type: network.TypeConnection, Name: "leaver", GameID: "g3"})
	stayer.waitFor(t, "player_list of 2", func(m *wireMessage) bool {
		return m.Type == network.TypePlayerList && len(m.Players) == 2
	})

	// Explicit disconnect message, then the physical close right behind it.
	leaver.send(t, &network.ClientMessage{Type: network.TypeDisconnect, GameID: "g3", Name: "leaver"})
	leaver.conn.Close()

	// The departure chat precedes the trimmed player_list, so waiting for
	// the list consumes the one legitimate announcement.
	stayer.waitFor(t, "player_list of 1", func(m *wireMessage) bool {
		return m.Type == network.TypePlayerList && len(m.Players) == 1
	})

	// The socket close arriving after the explicit disconnect must not
	// produce a second departure.
	departures := 0
	stayer.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	for {
		var msg wireMessage
		if err := stayer.dec.Decode(&msg); err != nil {
			break // deadline: stream is quiet
		}
		if msg.Type == network.TypeChat && msg.Content == "leaver a quitté la partie." {
			departures++
		}
	}
	assert.Zero(t, departures, "a departure must be announced exactly once")

	require.Eventually(t, func() bool {
		return s.roomManager.Count() == 1
	}, 2*time.Second, 50*time.Millisecond, "g3 must survive with one member")
}

func TestServer_RoomRemovedWhenEmpty(t *testing.T) {
	s := startTestServer(t)

	c := dialClient(t, s)
	c.send(t, &network.ClientMessage{Type: network.TypeConnection, Name: "solo", GameID: "g4"})
	c.waitFor(t, "player_list", isType(network.TypePlayerList))

	require.Eventually(t, func() bool {
		return s.roomManager.Count() == 1
	}, 2*time.Second, 50*time.Millisecond)

	c.conn.Close()

	require.Eventually(t, func() bool {
		return s.roomManager.Count() == 0
	}, 2*time.Second, 50*time.Millisecond, "an emptied room leaves the registry")
}
