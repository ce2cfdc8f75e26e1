package network

// Message types understood by the server.
const (
	TypeConnection = "connection"
	TypeStartGame  = "start_game"
	TypeChatSend   = "message"
	TypeMove       = "move"
	TypeDisconnect = "disconnect"
)

// Message types emitted by the server.
const (
	TypePlayerList     = "player_list"
	TypeChat           = "chat"
	TypeRoleAssignment = "role_assignment"
	TypeGameState      = "game_state"
	TypeError          = "error"
)

// SystemAuthor is the chat author used for server-generated lines.
const SystemAuthor = "Système"

// ClientMessage is the single inbound envelope. Fields are populated
// depending on Type; unknown types are dropped by the dispatcher.
type ClientMessage struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	GameID    string `json:"game_id,omitempty"`
	Player    string `json:"player,omitempty"`
	Content   string `json:"content,omitempty"`
	Direction int    `json:"direction,omitempty"`
}

type PlayerListMessage struct {
	Type    string   `json:"type"`
	Players []string `json:"players"`
}

type ChatMessage struct {
	Type    string `json:"type"`
	Player  string `json:"player"`
	Content string `json:"content"`
}

type RoleAssignmentMessage struct {
	Type string `json:"type"`
	Role string `json:"role"`
}

type GameStateMessage struct {
	Type          string   `json:"type"`
	Environment   []string `json:"environment"`
	IsYourTurn    bool     `json:"is_your_turn"`
	PlayerStatus  string   `json:"player_status"`
	CurrentPlayer string   `json:"current_player"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func NewPlayerList(players []string) *PlayerListMessage {
	return &PlayerListMessage{Type: TypePlayerList, Players: players}
}

func NewChat(player, content string) *ChatMessage {
	return &ChatMessage{Type: TypeChat, Player: player, Content: content}
}

// NewSystemChat builds a chat line authored by the server itself.
func NewSystemChat(content string) *ChatMessage {
	return NewChat(SystemAuthor, content)
}

func NewRoleAssignment(role string) *RoleAssignmentMessage {
	return &RoleAssignmentMessage{Type: TypeRoleAssignment, Role: role}
}

func NewError(content string) *ErrorMessage {
	return &ErrorMessage{Type: TypeError, Content: content}
}
