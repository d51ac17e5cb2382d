package chat

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConsole() (*Console, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewConsole(&buf, zap.NewNop()), &buf
}

func TestNewConsole_SeedsCommandChannel(t *testing.T) {
	c, _ := newConsole()

	chs := c.Channels()
	require.Len(t, chs, 1)
	assert.Equal(t, CommandChannelName, chs[0].Name)
	assert.Equal(t, chs[0].ID, c.CommandChannelID())
}

func TestSendMessage_PrefixesChannelName(t *testing.T) {
	c, buf := newConsole()

	require.NoError(t, c.SendMessage(context.Background(), c.CommandChannelID(), "watch started."))
	assert.Equal(t, "[bot-cmd] watch started.\n", buf.String())
}

func TestSendMessage_UnknownChannelFallsBackToID(t *testing.T) {
	c, buf := newConsole()

	require.NoError(t, c.SendMessage(context.Background(), "ch-99", "hello"))
	assert.Equal(t, "[ch-99] hello\n", buf.String())
}

func TestCreateChannel_DedupesCaseInsensitively(t *testing.T) {
	c, _ := newConsole()

	ch, err := c.CreateChannel(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, "A1", ch.Name)

	_, err = c.CreateChannel(context.Background(), "a1")
	assert.Error(t, err)
	assert.Len(t, c.Channels(), 2)
}

func TestDeleteChannel(t *testing.T) {
	c, _ := newConsole()

	ch, err := c.CreateChannel(context.Background(), "B2")
	require.NoError(t, err)
	require.NoError(t, c.DeleteChannel(context.Background(), ch.ID))
	assert.Len(t, c.Channels(), 1)

	assert.Error(t, c.DeleteChannel(context.Background(), ch.ID))
}

func TestChannels_ReturnsCopy(t *testing.T) {
	c, _ := newConsole()

	chs := c.Channels()
	chs[0].Name = "mutated"
	assert.Equal(t, CommandChannelName, c.Channels()[0].Name)
}
