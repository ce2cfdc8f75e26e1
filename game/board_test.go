package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoard_WallBorder(t *testing.T) {
	b := NewBoard(7)
	require.Equal(t, 7, b.Size())

	ok := b.AddPlayerAt("obs", RoleVillager, 3, 3)
	require.True(t, ok)

	env := b.Environment("obs")
	require.Len(t, env, 49)

	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			cell := env[y*7+x]
			if x == 0 || y == 0 || x == 6 || y == 6 {
				assert.Equal(t, SymbolWall, cell, "border cell (%d,%d)", x, y)
			} else {
				assert.NotEqual(t, SymbolWall, cell, "interior cell (%d,%d)", x, y)
			}
		}
	}
}

func TestAddPlayer_DuplicateName(t *testing.T) {
	b := NewBoard(7)
	require.True(t, b.AddPlayer("anna", RoleVillager))
	assert.False(t, b.AddPlayer("anna", RoleWolf))
}

func TestAddPlayer_FullBoard(t *testing.T) {
	b := NewBoard(3) // single interior cell
	require.True(t, b.AddPlayer("anna", RoleVillager))
	assert.False(t, b.AddPlayer("ben", RoleVillager))
}

func TestAddPlayerAt_RejectsWallsAndOccupied(t *testing.T) {
	b := NewBoard(7)
	assert.False(t, b.AddPlayerAt("anna", RoleVillager, 0, 0))
	assert.False(t, b.AddPlayerAt("anna", RoleVillager, 7, 3))
	require.True(t, b.AddPlayerAt("anna", RoleVillager, 2, 2))
	assert.False(t, b.AddPlayerAt("ben", RoleVillager, 2, 2))
}

func TestMove_IntoWallRejected(t *testing.T) {
	b := NewBoard(7)
	require.True(t, b.AddPlayerAt("anna", RoleVillager, 1, 1))

	assert.False(t, b.Move("anna", 1)) // up into the border
	assert.False(t, b.Move("anna", 3)) // left into the border
	assert.True(t, b.Move("anna", 4))  // right is open

	p, ok := b.Player("anna")
	require.True(t, ok)
	assert.Equal(t, 2, p.X)
	assert.Equal(t, 1, p.Y)
}

func TestMove_UnknownPlayerOrDirection(t *testing.T) {
	b := NewBoard(7)
	assert.False(t, b.Move("ghost", 1))

	require.True(t, b.AddPlayerAt("anna", RoleVillager, 3, 3))
	assert.False(t, b.Move("anna", 0))
	assert.False(t, b.Move("anna", 9))
}

func TestMove_VillagerCollisionRejectedWolfKills(t *testing.T) {
	b := NewBoard(7)
	require.True(t, b.AddPlayerAt("villager1", RoleVillager, 2, 2))
	require.True(t, b.AddPlayerAt("villager2", RoleVillager, 3, 2))
	require.True(t, b.AddPlayerAt("wolf", RoleWolf, 4, 2))

	// A villager may not move onto another living villager.
	assert.False(t, b.Move("villager1", 4))

	// The same step by the wolf is a kill.
	require.True(t, b.Move("wolf", 3))
	assert.False(t, b.IsAlive("villager2"))

	wolf, ok := b.Player("wolf")
	require.True(t, ok)
	assert.Equal(t, 3, wolf.X)
	assert.Equal(t, 2, wolf.Y)

	// The freed cell is walkable again for villagers.
	b.RemovePlayer("wolf")
	assert.True(t, b.Move("villager1", 4))
}

func TestMove_DeadPlayerCannotMove(t *testing.T) {
	b := NewBoard(7)
	require.True(t, b.AddPlayerAt("villager", RoleVillager, 2, 2))
	require.True(t, b.AddPlayerAt("wolf", RoleWolf, 3, 2))
	require.True(t, b.Move("wolf", 3))
	require.False(t, b.IsAlive("villager"))

	assert.False(t, b.Move("villager", 4))
}

func TestMove_WolvesMayStack(t *testing.T) {
	b := NewBoard(7)
	require.True(t, b.AddPlayerAt("wolf1", RoleWolf, 2, 2))
	require.True(t, b.AddPlayerAt("wolf2", RoleWolf, 3, 2))

	require.True(t, b.Move("wolf1", 4))
	assert.True(t, b.IsAlive("wolf2"))

	// The wolf leaving a shared cell must not erase its roommate.
	require.True(t, b.Move("wolf1", 4))
	require.True(t, b.AddPlayerAt("obs", RoleVillager, 3, 3))
	env := b.Environment("obs")
	assert.Equal(t, SymbolWolf, env[2*7+3])
}

func TestEnvironment_VillagerVisionRadius(t *testing.T) {
	b := NewBoard(7)
	require.True(t, b.AddPlayerAt("villager", RoleVillager, 3, 3))
	require.True(t, b.AddPlayerAt("wolf", RoleWolf, 5, 3)) // Manhattan distance 2

	env := b.Environment("villager")
	assert.Equal(t, SymbolEmpty, env[3*7+5], "wolf at distance 2 must be hidden")

	b2 := NewBoard(7)
	require.True(t, b2.AddPlayerAt("villager", RoleVillager, 3, 3))
	require.True(t, b2.AddPlayerAt("wolf", RoleWolf, 4, 3)) // distance 1

	env = b2.Environment("villager")
	assert.Equal(t, SymbolWolf, env[3*7+4], "wolf at distance 1 must be visible")
}

func TestEnvironment_WolfVisionRadius(t *testing.T) {
	b := NewBoard(7)
	require.True(t, b.AddPlayerAt("wolf", RoleWolf, 1, 3))
	require.True(t, b.AddPlayerAt("near", RoleVillager, 3, 3)) // distance 2
	require.True(t, b.AddPlayerAt("far", RoleVillager, 4, 3))  // distance 3

	env := b.Environment("wolf")
	assert.Equal(t, SymbolVillager, env[3*7+3], "villager at distance 2 must be visible")
	assert.Equal(t, SymbolEmpty, env[3*7+4], "villager at distance 3 must be hidden")
}

func TestEnvironment_SelfMarkerAndWalls(t *testing.T) {
	b := NewBoard(7)
	require.True(t, b.AddPlayerAt("anna", RoleVillager, 3, 3))

	env := b.Environment("anna")
	assert.Equal(t, SymbolSelf, env[3*7+3])
	// Walls render regardless of distance.
	assert.Equal(t, SymbolWall, env[0])
	assert.Equal(t, SymbolWall, env[48])
}

func TestEnvironment_DeadObserverSeesEverything(t *testing.T) {
	b := NewBoard(7)
	require.True(t, b.AddPlayerAt("victim", RoleVillager, 2, 2))
	require.True(t, b.AddPlayerAt("wolf", RoleWolf, 3, 2))
	require.True(t, b.AddPlayerAt("far", RoleVillager, 5, 5))
	require.True(t, b.Move("wolf", 3))
	require.False(t, b.IsAlive("victim"))

	env := b.Environment("victim")
	require.Len(t, env, 49)
	assert.Equal(t, SymbolWolf, env[2*7+2], "wolf visible regardless of distance")
	assert.Equal(t, SymbolVillager, env[5*7+5], "remote villager visible to a spectator")
	// A dead player occupies no cell, so no self marker remains.
	assert.NotContains(t, env, SymbolSelf)
}

func TestEnvironment_UnknownPlayer(t *testing.T) {
	b := NewBoard(7)
	assert.Nil(t, b.Environment("ghost"))
}

func TestCanStart(t *testing.T) {
	b := NewBoard(7)
	for _, name := range []string{"a", "b", "c"} {
		require.True(t, b.AddPlayer(name, RoleVillager))
	}
	assert.False(t, b.CanStart(4))
	require.True(t, b.AddPlayer("d", RoleVillager))
	assert.True(t, b.CanStart(4))
}

func TestAddPlayer_RandomPlacementStaysInterior(t *testing.T) {
	b := NewBoard(7)
	for i := 0; i < 25; i++ {
		require.True(t, b.AddPlayer(string(rune('a'+i)), RoleVillager))
	}
	// 5x5 interior is now full.
	assert.False(t, b.AddPlayer("overflow", RoleVillager))
	for _, p := range b.Players() {
		assert.GreaterOrEqual(t, p.X, 1)
		assert.GreaterOrEqual(t, p.Y, 1)
		assert.LessOrEqual(t, p.X, 5)
		assert.LessOrEqual(t, p.Y, 5)
	}
}
