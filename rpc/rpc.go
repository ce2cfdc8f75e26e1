package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/loupgarou/logger"
	"github.com/wfunc/loupgarou/models"
	"github.com/wfunc/loupgarou/persistence"
	"github.com/wfunc/loupgarou/room"
)

// Server manages the admin RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

func (s *Server) Start() {
	logger.Log.Infof("Admin RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("Admin RPC listener closed.")
				return
			}
			logger.Log.Errorf("Admin RPC accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping admin RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes room listings and archived match data over net/rpc.
type AdminService struct {
	roomManager *room.Manager
	db          persistence.Database
}

func NewAdminService(roomManager *room.Manager, db persistence.Database) *AdminService {
	return &AdminService{roomManager: roomManager, db: db}
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []models.RoomSummary
}

func (a *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	for _, r := range a.roomManager.Rooms() {
		reply.Rooms = append(reply.Rooms, r.Summary())
	}
	return nil
}

type PlayerStatsArgs struct {
	Name string
}

type PlayerStatsReply struct {
	Stats *models.PlayerStats
}

func (a *AdminService) GetPlayerStats(args *PlayerStatsArgs, reply *PlayerStatsReply) error {
	if a.db == nil {
		return persistence.ErrRecordNotFound
	}
	stats, err := a.db.GetPlayerStats(args.Name)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

type MatchHistoryArgs struct {
	RoomID string
	Limit  int
}

type MatchHistoryReply struct {
	Records []models.GameRecord
}

func (a *AdminService) MatchHistory(args *MatchHistoryArgs, reply *MatchHistoryReply) error {
	if a.db == nil {
		return persistence.ErrRecordNotFound
	}
	records, err := a.db.MatchHistory(args.RoomID, args.Limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}
