// Package network carries the wire protocol and its transports.
//
// Messages are JSON objects. The server writes one object per line; inbound
// bytes are consumed with a streaming decoder, so a peer may send objects
// back to back, newline-delimited, or split across arbitrary TCP segments.
// The historical protocol had no framing token at all, which the streaming
// decoder still accepts; new clients should terminate each object with '\n'.
package network

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection abstracts one client transport. Implementations must be safe
// for one reader goroutine plus concurrent senders.
type Connection interface {
	Send(v any) error
	ReadMessage() (*ClientMessage, error)
	Close() error
	RemoteAddr() net.Addr
	SetSendTimeout(d time.Duration)
}

// TCPConnection speaks newline-delimited JSON over a raw stream socket.
type TCPConnection struct {
	conn        net.Conn
	dec         *json.Decoder
	sendMutex   sync.Mutex
	sendTimeout time.Duration
}

func NewTCPConnection(conn net.Conn) *TCPConnection {
	return &TCPConnection{
		conn: conn,
		dec:  json.NewDecoder(bufio.NewReader(conn)),
	}
}

func (c *TCPConnection) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if c.sendTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout))
	}
	_, err = c.conn.Write(data)
	return err
}

func (c *TCPConnection) ReadMessage() (*ClientMessage, error) {
	var msg ClientMessage
	if err := c.dec.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *TCPConnection) SetSendTimeout(d time.Duration) {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	c.sendTimeout = d
}

func (c *TCPConnection) Close() error {
	return c.conn.Close()
}

func (c *TCPConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// WSConnection carries the same JSON protocol, one object per text frame.
type WSConnection struct {
	conn        *websocket.Conn
	sendMutex   sync.Mutex
	sendTimeout time.Duration
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{conn: conn}
}

func (c *WSConnection) Send(v any) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if c.sendTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout))
	}
	return c.conn.WriteJSON(v)
}

func (c *WSConnection) ReadMessage() (*ClientMessage, error) {
	var msg ClientMessage
	if err := c.conn.ReadJSON(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *WSConnection) SetSendTimeout(d time.Duration) {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	c.sendTimeout = d
}

func (c *WSConnection) Close() error {
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
