package server

import (
	"net"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/loupgarou/broadcast"
	"github.com/wfunc/loupgarou/config"
	"github.com/wfunc/loupgarou/logger"
	"github.com/wfunc/loupgarou/monitor"
	"github.com/wfunc/loupgarou/network"
	"github.com/wfunc/loupgarou/persistence"
	"github.com/wfunc/loupgarou/room"
	loupgarourpc "github.com/wfunc/loupgarou/rpc"
	"github.com/wfunc/loupgarou/session"
	"github.com/wfunc/loupgarou/timer"
)

// GameServer accepts client connections and dispatches their messages to
// rooms. Each connection runs its own goroutine; rooms serialize their own
// state.
type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	mon            *monitor.Monitor
	rpcServer      *loupgarourpc.Server
	timers         *timer.Manager
	listener       net.Listener
	shutdownChan   chan struct{}
	closeOnce      sync.Once
}

func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	broadcaster := broadcast.New()
	s := &GameServer{
		cfg:            cfg,
		sessionManager: session.NewManager(),
		timers:         timer.NewManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.roomManager = room.NewManager(func(id string) *room.Room {
		return room.NewRoom(id, room.Options{
			GridSize:   cfg.Game.GridSize,
			MinPlayers: cfg.Game.MinPlayers,
			DB:         db,
		}, broadcaster)
	})

	if cfg.Server.RPCAddress != "" {
		rpcServer, err := loupgarourpc.NewServer(cfg.Server.RPCAddress)
		if err != nil {
			logger.Log.Fatalf("Failed to create admin RPC server: %v", err)
		}
		s.rpcServer = rpcServer
		rpc.Register(loupgarourpc.NewAdminService(s.roomManager, db))
	}

	if cfg.Server.MetricsAddress != "" {
		s.mon = monitor.NewMonitor("loupgarou")
		s.mon.StartServer(cfg.Server.MetricsAddress)
		s.timers.AddTimer(5*time.Second, 5*time.Second, func() {
			s.mon.SetActiveRooms(s.roomManager.Count())
		})
	}

	if cfg.Server.IdleTimeout > 0 {
		s.timers.AddTimer(time.Minute, time.Minute, func() {
			if n := s.sessionManager.CloseIdle(cfg.Server.IdleTimeout); n > 0 {
				logger.Log.Infof("Closed %d idle connections", n)
			}
		})
	}

	return s
}

// Start binds the listeners and serves until the process exits.
func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}
	if s.cfg.Server.WSAddress != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", s.handleWebSocket)
		go func() {
			logger.Log.Infof("WebSocket endpoint listening on %s", s.cfg.Server.WSAddress)
			if err := http.ListenAndServe(s.cfg.Server.WSAddress, mux); err != nil {
				logger.Log.Errorf("WebSocket listener failed: %v", err)
			}
		}()
	}

	if err := s.ListenTCP(); err != nil {
		return err
	}
	return s.Serve()
}

// ListenTCP binds the main listener without serving yet. Split from Serve so
// tests can learn the bound address.
func (s *GameServer) ListenTCP() error {
	listener, err := net.Listen("tcp", s.cfg.Server.TCPAddress)
	if err != nil {
		return err
	}
	s.listener = listener
	logger.Log.Infof("Game server listening on %s", listener.Addr())
	return nil
}

// Addr returns the bound TCP address. Valid after ListenTCP.
func (s *GameServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until Shutdown closes the listener.
func (s *GameServer) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdownChan:
				return nil
			default:
			}
			logger.Log.Errorf("Accept error: %v", err)
			continue
		}
		go s.handleConnection(network.NewTCPConnection(conn))
	}
}

func (s *GameServer) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.shutdownChan)
		if s.listener != nil {
			s.listener.Close()
		}
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		s.timers.Stop()
	})
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn))
}

// handleConnection is the per-connection read loop. It owns the connection:
// nothing else reads it, and teardown always goes through the deferred path,
// so an explicit disconnect followed by the socket closing cannot remove the
// player twice.
func (s *GameServer) handleConnection(conn network.Connection) {
	conn.SetSendTimeout(s.cfg.Server.SendTimeout)
	sess := session.NewSession(uuid.New().String(), conn)
	s.sessionManager.Add(sess)
	if s.mon != nil {
		s.mon.IncOnlinePlayers()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.ID)

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", conn.RemoteAddr(), sess.ID)
		s.roomManager.Leave(sess)
		s.sessionManager.Remove(sess.ID)
		if s.mon != nil {
			s.mon.DecOnlinePlayers()
		}
		conn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
		}
		msg, err := conn.ReadMessage()
		if err != nil {
			// EOF and decode failures end the connection the same way.
			return
		}
		s.handleMessage(sess, msg)
	}
}

func (s *GameServer) handleMessage(sess *session.Session, msg *network.ClientMessage) {
	start := time.Now()
	sess.Touch()
	if s.mon != nil {
		s.mon.IncMessagesReceived()
		defer func() { s.mon.ObserveMessageLatency(time.Since(start)) }()
	}

	switch msg.Type {
	case network.TypeConnection:
		s.handleJoin(sess, msg)
	case network.TypeStartGame:
		if r, ok := s.roomManager.Route(sess.ID); ok {
			r.Start(sess)
		}
	case network.TypeChatSend:
		if r, ok := s.roomManager.Route(sess.ID); ok {
			r.Chat(msg.Player, msg.Content)
		}
	case network.TypeMove:
		if r, ok := s.roomManager.Route(sess.ID); ok {
			r.Move(sess, msg.Direction)
		}
	case network.TypeDisconnect:
		s.roomManager.Leave(sess)
	default:
		logger.Log.Infof("Unknown message type: %q from session %s", msg.Type, sess.ID)
	}
}

func (s *GameServer) handleJoin(sess *session.Session, msg *network.ClientMessage) {
	if msg.Name == "" || msg.GameID == "" {
		sess.Send(network.NewError("Nom de joueur ou identifiant de partie manquant."))
		return
	}
	if sess.GameID() != "" {
		sess.Send(network.NewError("Vous êtes déjà dans une partie."))
		return
	}
	if err := s.roomManager.Join(sess, msg.Name, msg.GameID); err != nil {
		logger.Log.Infof("Session %s failed to join game %s: %v", sess.ID, msg.GameID, err)
		return
	}
	logger.Log.Infof("Session %s joined game %s as %s", sess.ID, msg.GameID, msg.Name)
}
