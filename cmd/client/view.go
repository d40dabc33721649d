package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"

	"github.com/velichkin/securechannel/internal/handlers/dto"
	ws "github.com/velichkin/securechannel/internal/websocket"
)

// Config defines the client-side environment variables (CHAT_ prefix).
type Config struct {
	ServerURL   string        `envconfig:"SERVER_URL" default:"http://localhost:8080"`
	DisplayName string        `envconfig:"DISPLAY_NAME"`
	EditWindow  time.Duration `envconfig:"EDIT_WINDOW" default:"15m"`
}

// View is the interactive chat view: it holds the live window and the
// compose state, and maps user commands onto feed actions.
type View struct {
	cfg        Config
	token      string
	sessionUID string
	conn       *websocket.Conn

	// writeMu serializes frame writes; the read loop and the command loop
	// both send.
	writeMu sync.Mutex

	// mu guards the window, which is wholly replaced on every snapshot.
	mu     sync.Mutex
	window []dto.MessageResponse

	feedDone chan struct{}
}

// Login prompts for the shared access key until the gate accepts it, then
// opens the feed connection.
func Login(ctx context.Context, cfg Config, stdin *bufio.Reader) (*View, error) {
	var token string
	for {
		fmt.Print("Access key: ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			return nil, err
		}

		token, err = requestToken(ctx, cfg.ServerURL, strings.TrimSpace(line))
		if err == errAccessDenied {
			color.Red.Println("Access denied.")
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	sessionUID, err := sessionUIDFromToken(token)
	if err != nil {
		return nil, err
	}

	wsURL := strings.Replace(cfg.ServerURL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not connect to feed: %w", err)
	}

	color.Green.Println("Connected. Type a message, or /edit N, /withdraw N, /quit.")

	return &View{
		cfg:        cfg,
		token:      token,
		sessionUID: sessionUID,
		conn:       conn,
		feedDone:   make(chan struct{}),
	}, nil
}

// Run consumes the feed and the command line until either ends.
func (v *View) Run(ctx context.Context, stdin *bufio.Reader) error {
	go v.readFeed()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := stdin.ReadString('\n')
			if err != nil {
				return
			}
			lines <- strings.TrimRight(line, "\r\n")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-v.feedDone:
			return fmt.Errorf("feed connection closed")

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := v.handleLine(line, lines); quit {
				return nil
			}
		}
	}
}

// Close logs the session out and tears the feed down.
func (v *View) Close() {
	req, err := http.NewRequest(http.MethodPost, v.cfg.ServerURL+"/auth/logout", nil)
	if err == nil {
		req.Header.Set("Authorization", "Bearer "+v.token)
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
		}
	}

	v.conn.Close()
}

func (v *View) handleLine(line string, lines chan string) (quit bool) {
	switch {
	case line == "":
		return false

	case line == "/quit":
		return true

	case strings.HasPrefix(line, "/withdraw "):
		v.withdraw(strings.TrimPrefix(line, "/withdraw "), lines)
		return false

	case strings.HasPrefix(line, "/edit "):
		v.edit(strings.TrimPrefix(line, "/edit "))
		return false

	case strings.HasPrefix(line, "/"):
		color.Yellow.Println("Unknown command.")
		return false

	default:
		v.send(line)
		return false
	}
}

func (v *View) send(content string) {
	payload := dto.MessagePayload{Content: content, DisplayName: v.cfg.DisplayName}
	if err := v.writeFrame(ws.TypeMessage, payload); err != nil {
		// Failed sends keep the typed line visible in the terminal, so
		// the user can retry it.
		color.Red.Println("Failed to send, please retry.")
	}
}

func (v *View) withdraw(arg string, lines chan string) {
	msg, ok := v.ownMessage(arg)
	if !ok {
		return
	}

	fmt.Print("Withdraw this message? [y/N] ")
	answer, ok := <-lines
	if !ok || !strings.EqualFold(strings.TrimSpace(answer), "y") {
		color.Yellow.Println("Cancelled.")
		return
	}

	if err := v.writeFrame(ws.TypeMessageWithdraw, dto.WithdrawPayload{MessageID: msg.ID}); err != nil {
		color.Red.Println("Failed to withdraw, please retry.")
	}
}

func (v *View) edit(arg string) {
	numStr, newContent, found := strings.Cut(arg, " ")
	if !found || strings.TrimSpace(newContent) == "" {
		color.Yellow.Println("Usage: /edit N new text")
		return
	}

	msg, ok := v.ownMessage(numStr)
	if !ok {
		return
	}

	// Mirror of the server's edit window, purely to shape the affordance;
	// the server re-checks with its own clock.
	if time.Since(msg.Timestamp) > v.cfg.EditWindow {
		color.Yellow.Println("Too late to edit this message.")
		return
	}
	if newContent == msg.Content {
		return
	}

	if err := v.writeFrame(ws.TypeMessageEdit, dto.EditPayload{MessageID: msg.ID, Content: newContent}); err != nil {
		color.Red.Println("Failed to edit, please retry.")
	}
}

// ownMessage resolves a display number to one of the caller's own messages.
func (v *View) ownMessage(numStr string) (dto.MessageResponse, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		color.Yellow.Println("Expected a message number.")
		return dto.MessageResponse{}, false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if n < 1 || n > len(v.window) {
		color.Yellow.Println("No such message.")
		return dto.MessageResponse{}, false
	}

	msg := v.window[n-1]
	if msg.AuthUID != v.sessionUID {
		color.Yellow.Println("You can only modify your own messages.")
		return dto.MessageResponse{}, false
	}

	return msg, true
}

func (v *View) readFeed() {
	defer close(v.feedDone)

	for {
		var frame ws.Frame
		if err := v.conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Type {
		case ws.TypeSnapshot:
			var window []dto.MessageResponse
			if err := json.Unmarshal(frame.Data, &window); err != nil {
				continue
			}
			v.mu.Lock()
			v.window = window
			v.mu.Unlock()
			v.render()

		case ws.TypeError:
			var payload struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(frame.Data, &payload); err == nil {
				color.Red.Printf("Rejected: %s\n", payload.Error)
			}

		case ws.TypePing:
			v.writeFrame(ws.TypePong, nil)
		}
	}
}

// render redraws the whole window, newest message last.
func (v *View) render() {
	v.mu.Lock()
	defer v.mu.Unlock()

	fmt.Println(strings.Repeat("-", 60))
	for i, msg := range v.window {
		meta := fmt.Sprintf("%3d  [%s] %s", i+1, msg.Timestamp.Local().Format("15:04"), msg.DisplayName)
		if msg.AuthUID == v.sessionUID {
			color.Cyan.Print(meta)
		} else {
			color.Bold.Print(meta)
		}

		if !msg.Visible {
			color.Gray.Printf("  %s\n", msg.Content)
			continue
		}

		fmt.Printf("  %s", msg.Content)
		if msg.IsEdited {
			color.Yellow.Print(" (edited)")
		}
		fmt.Println()
	}
	fmt.Print("> ")
}

func (v *View) writeFrame(frameType ws.FrameType, payload interface{}) error {
	frame := ws.Frame{Type: frameType, Timestamp: time.Now()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		frame.Data = data
	}

	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	return v.conn.WriteJSON(frame)
}

var errAccessDenied = fmt.Errorf("access denied")

func requestToken(ctx context.Context, serverURL, password string) (string, error) {
	body, err := json.Marshal(dto.GateRequest{Password: password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/auth/gate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return "", errAccessDenied
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gate returned status %d", resp.StatusCode)
	}

	var gateResp dto.GateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gateResp); err != nil {
		return "", err
	}
	return gateResp.Token, nil
}

// sessionUIDFromToken reads the subject claim without verifying the
// signature; the client has no signing key and only needs to recognize its
// own messages.
func sessionUIDFromToken(token string) (string, error) {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}
