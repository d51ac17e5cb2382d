// Package chat provides in-process chat-platform adapters. The real
// platform lives behind domain.ChatClient; the console gateway stands
// in for it during local operation.
package chat

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"atlaswatch/internal/cluster"
	"atlaswatch/internal/domain"
)

// CommandChannelName is the channel commands are read from and replied
// to in console mode.
const CommandChannelName = "bot-cmd"

// Console implements domain.ChatClient over stdio. Channels are kept
// in memory; messages render to the writer prefixed with the channel
// name.
type Console struct {
	out    io.Writer
	logger *zap.Logger

	mu       sync.Mutex
	channels []domain.Channel
	nextID   int
}

// NewConsole creates a console gateway seeded with the command channel.
func NewConsole(out io.Writer, logger *zap.Logger) *Console {
	c := &Console{out: out, logger: logger}
	c.channels = append(c.channels, domain.Channel{ID: c.newID(), Name: CommandChannelName})
	return c
}

// CommandChannelID returns the ID of the seeded command channel.
func (c *Console) CommandChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[0].ID
}

// SendMessage renders a message to the console.
func (c *Console) SendMessage(_ context.Context, channelID, text string) error {
	c.mu.Lock()
	name := channelID
	for _, ch := range c.channels {
		if ch.ID == channelID {
			name = ch.Name
			break
		}
	}
	c.mu.Unlock()

	_, err := fmt.Fprintf(c.out, "[%s] %s\n", name, text)
	return err
}

// Channels returns a copy of the known channels.
func (c *Console) Channels() []domain.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]domain.Channel, len(c.channels))
	copy(cp, c.channels)
	return cp
}

// CreateChannel adds an in-memory channel. Names are compared
// case-insensitively; creating an existing name fails.
func (c *Console) CreateChannel(_ context.Context, name string) (domain.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.channels {
		if cluster.Normalize(ch.Name) == cluster.Normalize(name) {
			return domain.Channel{}, fmt.Errorf("channel %s already exists", name)
		}
	}
	ch := domain.Channel{ID: c.newID(), Name: name}
	c.channels = append(c.channels, ch)
	c.logger.Info("channel created", zap.String("name", name), zap.String("id", ch.ID))
	return ch, nil
}

// DeleteChannel removes a channel by ID.
func (c *Console) DeleteChannel(_ context.Context, channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, ch := range c.channels {
		if ch.ID == channelID {
			c.channels = append(c.channels[:i], c.channels[i+1:]...)
			c.logger.Info("channel deleted", zap.String("name", ch.Name), zap.String("id", channelID))
			return nil
		}
	}
	return fmt.Errorf("no channel with id %s", channelID)
}

func (c *Console) newID() string {
	c.nextID++
	return "ch-" + strconv.Itoa(c.nextID)
}

// Ensure Console implements domain.ChatClient.
var _ domain.ChatClient = (*Console)(nil)
