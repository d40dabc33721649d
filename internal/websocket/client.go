package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 64 * 1024
)

// ClientFrameHandler reacts to action frames sent by a client.
type ClientFrameHandler interface {
	HandleFrame(client *Client, frame *Frame) error
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionUID string) *Client {
	return &Client{
		ID:         uuid.New(),
		SessionUID: sessionUID,
		Conn:       conn,
		Send:       make(chan []byte, 16),
		Hub:        hub,
	}
}

// ReadPump reads action frames from the client until the connection drops.
func (c *Client) ReadPump(handler ClientFrameHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame Frame
		err := c.Conn.ReadJSON(&frame)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if frame.Type == TypePong {
			continue
		}

		if handler != nil {
			if err := handler.HandleFrame(c, &frame); err != nil {
				c.SendError(err.Error())
			}
		}
	}
}

// WritePump forwards queued frames to the client and keeps the connection
// alive with protocol-level pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Conn.WriteMessage(websocket.TextMessage, data)

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendFrame queues a frame for this client only.
func (c *Client) SendFrame(frameType FrameType, data interface{}) error {
	frame := Frame{
		Type:      frameType,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		frame.Data = jsonData
	}

	frameData, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	select {
	case c.Send <- frameData:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(errorMsg string) {
	c.SendFrame(TypeError, map[string]string{
		"error": errorMsg,
	})
}
