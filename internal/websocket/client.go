package chatws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/PeppePc-EchoArachna/arachna-connect/internal/models"
	"github.com/PeppePc-EchoArachna/arachna-connect/internal/notifier"
)

type messageSender interface {
	SendMessage(ctx context.Context, callerID, receiverID int64, content string) (*models.Message, error)
}

// Event is the wire frame pushed to connected clients. "message" carries a
// new message addressed to the user, "sent" acknowledges the user's own
// outbound message, "error" reports a rejected frame.
type Event struct {
	Type      string          `json:"type"`
	Message   *models.Message `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// Client ties one websocket connection to one hub subscription. ReadPump
// accepts outbound messages over the socket; WritePump drains the
// subscription and the client's own event queue. When either side ends the
// subscription is cancelled, which closes the stream and unblocks the other
// pump.
type Client struct {
	conn   *websocket.Conn
	sub    *notifier.Subscription
	userID int64
	events chan Event
}

func NewClient(conn *websocket.Conn, sub *notifier.Subscription, userID int64) *Client {
	return &Client{
		conn:   conn,
		sub:    sub,
		userID: userID,
		events: make(chan Event, 8),
	}
}

type inboundFrame struct {
	Type       string `json:"type"`
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}

func (c *Client) ReadPump(service messageSender) {
	defer func() {
		c.sub.Cancel()
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming inboundFrame
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.queueError("invalid message payload")
			continue
		}
		if incoming.Type != "message" {
			c.queueError("unsupported message type")
			continue
		}

		message, err := service.SendMessage(
			context.Background(),
			c.userID,
			incoming.ReceiverID,
			incoming.Content,
		)
		if err != nil {
			c.queueError("failed to send message")
			continue
		}

		c.queue(Event{
			Type:      "sent",
			Message:   message,
			Timestamp: formatTimestamp(message.CreatedAt),
		})
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.sub.C:
			if !ok {
				return
			}
			c.write(Event{
				Type:      "message",
				Message:   &message,
				Timestamp: formatTimestamp(message.CreatedAt),
			})
		case event := <-c.events:
			c.write(event)
		}
	}
}

func (c *Client) write(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("chat ws encode event: %v", err)
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.sub.Cancel()
	}
}

func (c *Client) queue(event Event) {
	select {
	case c.events <- event:
	default:
	}
}

func (c *Client) queueError(message string) {
	c.queue(Event{
		Type:      "error",
		Error:     message,
		Timestamp: formatTimestamp(time.Now().UTC()),
	})
}

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
