// Terminal reference client. Joins a game over TCP and exposes the protocol
// through simple commands:
//
//	/start        request the game start
//	/move <1-8>   move (1 up, 2 down, 3 left, 4 right, 5-8 diagonals)
//	/quit         leave and exit
//	anything else chat
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
)

type message struct {
	Type          string   `json:"type"`
	Name          string   `json:"name,omitempty"`
	GameID        string   `json:"game_id,omitempty"`
	Player        string   `json:"player,omitempty"`
	Content       string   `json:"content,omitempty"`
	Direction     int      `json:"direction,omitempty"`
	Players       []string `json:"players,omitempty"`
	Role          string   `json:"role,omitempty"`
	Environment   []string `json:"environment,omitempty"`
	IsYourTurn    bool     `json:"is_your_turn,omitempty"`
	PlayerStatus  string   `json:"player_status,omitempty"`
	CurrentPlayer string   `json:"current_player,omitempty"`
}

func send(conn net.Conn, v *message) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = conn.Write(append(data, '\n'))
	return err
}

func printGrid(cells []string) {
	size := 0
	for size*size < len(cells) {
		size++
	}
	if size*size != len(cells) {
		return
	}
	for y := 0; y < size; y++ {
		fmt.Println(strings.Join(cells[y*size:(y+1)*size], ""))
	}
}

func main() {
	addr := flag.String("addr", "localhost:12345", "server address")
	name := flag.String("name", "", "player name")
	gameID := flag.String("game", "g1", "game id")
	flag.Parse()

	if *name == "" {
		log.Fatal("a player name is required (-name)")
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if err := send(conn, &message{Type: "connection", Name: *name, GameID: *gameID}); err != nil {
		log.Fatalf("Join failed: %v", err)
	}
	log.Printf("Joined game %q as %q", *gameID, *name)

	done := make(chan struct{})

	go func() {
		defer close(done)
		dec := json.NewDecoder(bufio.NewReader(conn))
		for {
			var msg message
			if err := dec.Decode(&msg); err != nil {
				log.Printf("Connection closed: %v", err)
				return
			}
			switch msg.Type {
			case "chat":
				fmt.Printf("[%s] %s\n", msg.Player, msg.Content)
			case "player_list":
				fmt.Printf("Players: %s\n", strings.Join(msg.Players, ", "))
			case "role_assignment":
				fmt.Printf("Your role: %s\n", msg.Role)
			case "game_state":
				printGrid(msg.Environment)
				if msg.PlayerStatus == "dead" {
					fmt.Println("You are dead (spectator view).")
				}
				if msg.IsYourTurn {
					fmt.Println("Your turn! /move <1-8>")
				} else if msg.CurrentPlayer != "" {
					fmt.Printf("Waiting for %s...\n", msg.CurrentPlayer)
				}
			case "error":
				fmt.Printf("Error: %s\n", msg.Content)
			}
		}
	}()

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		default:
		}

		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)

		switch {
		case text == "":
		case text == "/quit":
			send(conn, &message{Type: "disconnect", Name: *name, GameID: *gameID})
			return
		case text == "/start":
			send(conn, &message{Type: "start_game", GameID: *gameID})
		case strings.HasPrefix(text, "/move "):
			dir, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(text, "/move ")))
			if err != nil || dir < 1 || dir > 8 {
				fmt.Println("Usage: /move <1-8>")
				continue
			}
			send(conn, &message{Type: "move", GameID: *gameID, Direction: dir})
		default:
			send(conn, &message{Type: "message", GameID: *gameID, Player: *name, Content: text})
		}
	}
}
