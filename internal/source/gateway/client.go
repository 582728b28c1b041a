// Package gateway is the network source: it talks JSON over HTTP to an
// agent gateway and subscribes to its websocket for new-output
// notifications.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/marcus/agentview/internal/rawevent"
	"github.com/marcus/agentview/internal/source"
)

const requestTimeout = 15 * time.Second

// envelope is the gateway's standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// sessionRecord is the wire shape of a session listing entry.
type sessionRecord struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CreatedAt    rawevent.Time `json:"created_at"`
	UpdatedAt    rawevent.Time `json:"updated_at"`
	MessageCount int           `json:"message_count"`
	IsActive     bool          `json:"is_active"`
}

// notice is the wire shape of a websocket notification.
type notice struct {
	SessionID string `json:"session_id"`
}

// Client is a gateway-backed source.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the gateway at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Sessions lists the gateway's sessions.
func (c *Client) Sessions(ctx context.Context) ([]source.Session, error) {
	data, err := c.get(ctx, "/sessions")
	if err != nil {
		return nil, err
	}
	var records []sessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	sessions := make([]source.Session, len(records))
	for i, r := range records {
		sessions[i] = source.Session{
			ID:           r.ID,
			Name:         r.Name,
			CreatedAt:    r.CreatedAt.Time,
			UpdatedAt:    r.UpdatedAt.Time,
			MessageCount: r.MessageCount,
			IsActive:     r.IsActive,
		}
	}
	return sessions, nil
}

// Conversation fetches the summarized prior user prompts.
func (c *Client) Conversation(ctx context.Context, sessionID string) ([]source.PromptRecord, error) {
	data, err := c.get(ctx, "/sessions/"+url.PathEscape(sessionID)+"/conversation")
	if err != nil {
		return nil, err
	}
	var prompts []source.PromptRecord
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return prompts, nil
}

// Events fetches the full mixed event log. Elements are decoded
// individually so a malformed event degrades to omission.
func (c *Client) Events(ctx context.Context, sessionID string) ([]rawevent.Event, error) {
	data, err := c.get(ctx, "/sessions/"+url.PathEscape(sessionID)+"/events")
	if err != nil {
		return nil, err
	}
	return source.DecodeEvents(data), nil
}

// Watch subscribes to the gateway's notification stream, filtered to one
// session. The returned closer ends the subscription.
func (c *Client) Watch(sessionID string) (<-chan source.Notice, io.Closer, error) {
	wsURL, err := c.websocketURL()
	if err != nil {
		return nil, nil, err
	}

	header := http.Header{}
	header.Set("X-Client-ID", uuid.NewString())
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		return nil, nil, fmt.Errorf("dial gateway: %w", err)
	}

	if err := conn.WriteJSON(map[string]string{
		"action":     "subscribe",
		"session_id": sessionID,
	}); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	notices := make(chan source.Notice, 16)
	go func() {
		defer close(notices)
		for {
			var n notice
			if err := conn.ReadJSON(&n); err != nil {
				return
			}
			if n.SessionID != sessionID {
				continue
			}
			select {
			case notices <- source.Notice{SessionID: n.SessionID}:
			default:
				// A pending notice already covers this burst.
			}
		}
	}()

	return notices, conn, nil
}

// get issues a GET and unwraps the gateway envelope.
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned %s for %s", resp.Status, path)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		if env.Error != "" {
			return nil, fmt.Errorf("gateway error: %s", env.Error)
		}
		return nil, fmt.Errorf("gateway request failed for %s", path)
	}
	return env.Data, nil
}

// websocketURL converts the base URL's scheme for the websocket endpoint.
func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = u.Path + "/ws"
	return u.String(), nil
}

var _ source.Source = (*Client)(nil)
