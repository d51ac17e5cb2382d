// Package gameapi is the HTTP client for the game-cluster JSON API.
package gameapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"atlaswatch/internal/domain"
)

// defaultTimeout bounds every fetch. A timed-out fetch is reported the
// same as any other fetch failure.
const defaultTimeout = 10 * time.Second

// Client fetches cluster and player listings. URL templates carry one
// %d verb: the world ID for the cluster listing, the server ID for the
// player listing.
type Client struct {
	http       *http.Client
	clusterURL string
	playerURL  string
}

// New creates a Client with the default timeout.
func New(clusterURL, playerURL string) *Client {
	return &Client{
		http:       &http.Client{Timeout: defaultTimeout},
		clusterURL: clusterURL,
		playerURL:  playerURL,
	}
}

// ClusterServers returns the cluster-wide server listing for a world.
// An empty payload is an error: the watch loop treats it as a failed
// fetch and retries.
func (c *Client) ClusterServers(ctx context.Context, world int) ([]domain.ClusterServer, error) {
	body, err := c.get(ctx, fmt.Sprintf(c.clusterURL, world))
	if err != nil {
		return nil, fmt.Errorf("fetching cluster servers for world %d: %w", world, err)
	}

	var servers []domain.ClusterServer
	if err := json.Unmarshal(body, &servers); err != nil {
		return nil, fmt.Errorf("decoding cluster servers: %w", err)
	}
	return servers, nil
}

// ServerPlayers returns the player listing for a numeric server ID.
func (c *Client) ServerPlayers(ctx context.Context, serverID int) ([]domain.Player, error) {
	body, err := c.get(ctx, fmt.Sprintf(c.playerURL, serverID))
	if err != nil {
		return nil, fmt.Errorf("fetching players for server %d: %w", serverID, err)
	}

	var players []domain.Player
	if err := json.Unmarshal(body, &players); err != nil {
		return nil, fmt.Errorf("decoding players: %w", err)
	}
	return players, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	return body, nil
}

// Ensure Client implements domain.GameAPI.
var _ domain.GameAPI = (*Client)(nil)
