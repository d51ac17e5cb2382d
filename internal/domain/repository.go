package domain

import "context"

// ChatClient is the chat-platform collaborator. The bot only needs
// message delivery and text-channel management; connecting and protocol
// handling live behind the implementation.
type ChatClient interface {
	// SendMessage posts text into a channel.
	SendMessage(ctx context.Context, channelID, text string) error

	// Channels returns the currently known text channels.
	Channels() []Channel

	// CreateChannel creates a text channel with the given name.
	CreateChannel(ctx context.Context, name string) (Channel, error)

	// DeleteChannel removes a channel by ID.
	DeleteChannel(ctx context.Context, channelID string) error
}

// GameAPI fetches live server data from the game-cluster HTTP API.
type GameAPI interface {
	// ClusterServers returns the cluster-wide server listing for a world.
	ClusterServers(ctx context.Context, world int) ([]ClusterServer, error)

	// ServerPlayers returns the player listing for a numeric server ID.
	ServerPlayers(ctx context.Context, serverID int) ([]Player, error)
}
