package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectProgress carries every progress value of every run.
	SubjectProgress = "swarm.chatarchive.progress"
	// SubjectConversationParsed carries a summary once a run completes.
	SubjectConversationParsed = "swarm.chatarchive.conversation.parsed"
	// SubjectAll matches every subject this service publishes.
	SubjectAll = "swarm.chatarchive.>"
)

// ProgressEvent is one progress value tagged with the upload it belongs to.
type ProgressEvent struct {
	UploadID string `json:"upload_id"`
	Stage    string `json:"stage"`
	Percent  int    `json:"percent"`
	Message  string `json:"message"`
}

// ConversationParsed announces a conversation registered with the service.
type ConversationParsed struct {
	ConversationID string     `json:"conversation_id"`
	Title          string     `json:"title"`
	Participants   []string   `json:"participants"`
	PrimaryUser    string     `json:"primary_user"`
	MessageCount   int        `json:"message_count"`
	MediaCount     int        `json:"media_count"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("chatarchive"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// PublishProgress emits one progress event.
func (c *Client) PublishProgress(ev ProgressEvent) error {
	return c.Publish(SubjectProgress, ev)
}

// PublishParsed emits a conversation.parsed event.
func (c *Client) PublishParsed(ev ConversationParsed) error {
	return c.Publish(SubjectConversationParsed, ev)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// Flush waits until the server has processed everything published so far.
func (c *Client) Flush(ctx context.Context) error {
	return c.conn.FlushWithContext(ctx)
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
