// Package game implements the Loup-Garou grid rules: placement, movement,
// kills, and per-player vision. It knows nothing about sockets or rooms.
package game

import (
	"math/rand"
)

// Grid cell symbols as rendered on the wire.
const (
	SymbolWall     = "#"
	SymbolEmpty    = " "
	SymbolWolf     = "L"
	SymbolVillager = "V"
	SymbolSelf     = "P"
)

const (
	RoleWolf     = "loup"
	RoleVillager = "villageois"
)

const (
	StatusAlive = "alive"
	StatusDead  = "dead"
)

const DefaultSize = 7

const (
	wolfVision     = 2
	villagerVision = 1
)

// directions maps the protocol's 1..8 codes to unit offsets.
// 1 up, 2 down, 3 left, 4 right, then the four diagonals.
var directions = map[int][2]int{
	1: {0, -1},
	2: {0, 1},
	3: {-1, 0},
	4: {1, 0},
	5: {-1, -1},
	6: {1, -1},
	7: {1, 1},
	8: {-1, 1},
}

// Player is one occupant of the board.
type Player struct {
	Name  string
	Role  string
	X, Y  int
	Alive bool
}

// Board is a fixed-size square grid with a wall border. Walls never change
// after creation. Occupancy is derived from the player registry on every
// query, so two wolves sharing a cell cannot corrupt the grid when one of
// them moves away.
type Board struct {
	size    int
	walls   [][]bool
	players map[string]*Player
}

// NewBoard builds a size×size grid whose border cells are walls. Sizes below
// 3 leave no interior and are bumped to the default.
func NewBoard(size int) *Board {
	if size < 3 {
		size = DefaultSize
	}
	walls := make([][]bool, size)
	for y := range walls {
		walls[y] = make([]bool, size)
		for x := range walls[y] {
			walls[y][x] = x == 0 || y == 0 || x == size-1 || y == size-1
		}
	}
	return &Board{
		size:    size,
		walls:   walls,
		players: make(map[string]*Player),
	}
}

func (b *Board) Size() int { return b.size }

// AddPlayer registers a player on a uniformly random empty interior cell.
// It reports false if the name is already taken or no empty cell remains.
func (b *Board) AddPlayer(name, role string) bool {
	if _, exists := b.players[name]; exists {
		return false
	}
	empty := b.emptyCells()
	if len(empty) == 0 {
		return false
	}
	cell := empty[rand.Intn(len(empty))]
	return b.AddPlayerAt(name, role, cell[0], cell[1])
}

// AddPlayerAt places a player on a specific cell. The cell must be a
// non-wall cell free of living players.
func (b *Board) AddPlayerAt(name, role string, x, y int) bool {
	if _, exists := b.players[name]; exists {
		return false
	}
	if x < 0 || y < 0 || x >= b.size || y >= b.size || b.walls[y][x] {
		return false
	}
	if b.occupantAt(x, y) != nil {
		return false
	}
	b.players[name] = &Player{Name: name, Role: role, X: x, Y: y, Alive: true}
	return true
}

// RemovePlayer drops a player from the board entirely.
func (b *Board) RemovePlayer(name string) {
	delete(b.players, name)
}

// Player returns a copy of the named player's state.
func (b *Board) Player(name string) (Player, bool) {
	p, ok := b.players[name]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Players returns a snapshot of every registered player.
func (b *Board) Players() []Player {
	out := make([]Player, 0, len(b.players))
	for _, p := range b.players {
		out = append(out, *p)
	}
	return out
}

// IsAlive reports whether the named player exists and is alive.
func (b *Board) IsAlive(name string) bool {
	p, ok := b.players[name]
	return ok && p.Alive
}

// CanStart reports whether enough players are registered to begin.
func (b *Board) CanStart(minPlayers int) bool {
	return len(b.players) >= minPlayers
}

// Move applies one step in the given direction. It reports false for an
// unknown player, a dead player, an unknown direction, or an invalid target
// cell. A wolf stepping onto a living villager kills it and takes the cell.
func (b *Board) Move(name string, direction int) bool {
	p, ok := b.players[name]
	if !ok || !p.Alive {
		return false
	}
	d, ok := directions[direction]
	if !ok {
		return false
	}
	nx, ny := p.X+d[0], p.Y+d[1]
	if !b.isValidMove(nx, ny, p) {
		return false
	}
	if p.Role == RoleWolf {
		for _, q := range b.players {
			if q != p && q.Alive && q.X == nx && q.Y == ny && q.Role == RoleVillager {
				q.Alive = false
			}
		}
	}
	p.X, p.Y = nx, ny
	return true
}

// isValidMove rejects walls and out-of-bounds cells for everyone, and cells
// holding another living player for villagers. Wolves may enter occupied
// cells; that is how kills happen.
func (b *Board) isValidMove(x, y int, mover *Player) bool {
	if x < 0 || y < 0 || x >= b.size || y >= b.size || b.walls[y][x] {
		return false
	}
	if mover.Role != RoleWolf {
		for _, q := range b.players {
			if q != mover && q.Alive && q.X == x && q.Y == y {
				return false
			}
		}
	}
	return true
}

// Environment renders the full grid from the observer's perspective as a
// row-major slice of one-character cells. A dead observer sees everything
// (spectator view). A living observer sees its own cell as the self marker,
// walls unconditionally, and other occupants only within its vision radius
// (Manhattan distance 2 for wolves, 1 for villagers). A name not on the
// board yields nil.
func (b *Board) Environment(name string) []string {
	obs, ok := b.players[name]
	if !ok {
		return nil
	}
	radius := villagerVision
	if obs.Role == RoleWolf {
		radius = wolfVision
	}
	cells := make([]string, 0, b.size*b.size)
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			cells = append(cells, b.renderCell(x, y, obs, radius))
		}
	}
	return cells
}

func (b *Board) renderCell(x, y int, obs *Player, radius int) string {
	if !obs.Alive {
		return b.trueContent(x, y)
	}
	if x == obs.X && y == obs.Y {
		return SymbolSelf
	}
	if b.walls[y][x] {
		return SymbolWall
	}
	if occ := b.occupantAt(x, y); occ != nil {
		if abs(x-obs.X)+abs(y-obs.Y) <= radius {
			return roleSymbol(occ.Role)
		}
		return SymbolEmpty
	}
	return SymbolEmpty
}

// trueContent renders a cell with no masking applied.
func (b *Board) trueContent(x, y int) string {
	if b.walls[y][x] {
		return SymbolWall
	}
	if occ := b.occupantAt(x, y); occ != nil {
		return roleSymbol(occ.Role)
	}
	return SymbolEmpty
}

// occupantAt returns a living player on the cell, preferring a wolf when
// wolves stack with anyone else.
func (b *Board) occupantAt(x, y int) *Player {
	var found *Player
	for _, p := range b.players {
		if p.Alive && p.X == x && p.Y == y {
			if p.Role == RoleWolf {
				return p
			}
			found = p
		}
	}
	return found
}

func (b *Board) emptyCells() [][2]int {
	var cells [][2]int
	for y := 1; y < b.size-1; y++ {
		for x := 1; x < b.size-1; x++ {
			if !b.walls[y][x] && b.occupantAt(x, y) == nil {
				cells = append(cells, [2]int{x, y})
			}
		}
	}
	return cells
}

func roleSymbol(role string) string {
	if role == RoleWolf {
		return SymbolWolf
	}
	return SymbolVillager
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
