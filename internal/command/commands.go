package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"atlaswatch/internal/cluster"
	"atlaswatch/internal/config"
	"atlaswatch/internal/domain"
	"atlaswatch/internal/watch"
)

// Table builds the full ordered command list. The context passed to
// Execute must outlive the watch loop, since /start hands it to the
// spawned loop goroutine.
func Table(cfg *config.Store, chat domain.ChatClient, w *watch.Watcher) []*Command {
	return []*Command{
		startCommand(chat, w),
		stopCommand(chat, w),
		addEnemyCommand(cfg, chat, "/add enemy", addEnemyUsage),
		delEnemyCommand(cfg, chat, "/del enemy", delEnemyUsage),
		listEnemyCommand(cfg, chat, "/list enemy", listEnemyUsage),
		addEnemyCommand(cfg, chat, "/add bl", aliasUsage("/add bl [player] [company]", "adds an enemy player.", "/add enemy")),
		delEnemyCommand(cfg, chat, "/del bl", aliasUsage("/del bl [player]", "removes an enemy player.", "/del enemy")),
		listEnemyCommand(cfg, chat, "/list bl", aliasUsage("/list bl", "lists the enemy players.", "/list enemy")),
		addServerCommand(chat),
		delServerCommand(chat),
		statusCommand(cfg, chat, w),
		setWorldCommand(cfg, chat),
		setIntervalCommand(cfg, chat),
		setSurgeCommand(cfg, chat),
	}
}

const addEnemyUsage = "`/add enemy [player] [company]`" +
	"\nadds an enemy player to the watch list." +
	"\nwhen a watched player shows up on a watched server, an alert is posted." +
	"\nthe company is optional." +
	"\nquote names containing spaces (e.g. /add enemy \"player name\" \"company name\")." +
	"\nmatching is a case-insensitive substring search (adding Bcd matches a player named abcde)."

const delEnemyUsage = "`/del enemy [player]`" +
	"\nremoves an enemy player from the watch list."

const listEnemyUsage = "`/list enemy`" +
	"\nlists the enemy players on the watch list."

func aliasUsage(form, short, target string) string {
	return fmt.Sprintf("`%s`\n%s\nbehaves exactly like %s.", form, short, target)
}

func startCommand(chat domain.ChatClient, w *watch.Watcher) *Command {
	return &Command{
		Token: "/start",
		Usage: "`/start`" +
			"\nstarts watching the servers." +
			"\nfetches server and player data every interval, posts a status line to each" +
			" report channel, and alerts on player surges and watch-listed arrivals.",
		Validate: func(string) string {
			if w.Running() {
				return "watch already running, continuing."
			}
			return ""
		},
		Run: func(ctx context.Context, channelID, _ string) error {
			if err := chat.SendMessage(ctx, channelID, "watch started."); err != nil {
				return err
			}
			w.Start(ctx, channelID)
			return nil
		},
	}
}

func stopCommand(chat domain.ChatClient, w *watch.Watcher) *Command {
	return &Command{
		Token: "/stop",
		Usage: "`/stop`" +
			"\nstops watching the servers.",
		Run: func(ctx context.Context, channelID, _ string) error {
			w.Stop()
			return chat.SendMessage(ctx, channelID, "watch stopped.")
		},
	}
}

func addEnemyCommand(cfg *config.Store, chat domain.ChatClient, token, usage string) *Command {
	return &Command{
		Token:   token,
		HasArgs: true,
		Usage:   usage,
		Validate: func(args string) string {
			if strings.TrimSpace(args) == "" {
				return "enter a player name."
			}
			return ""
		},
		Run: func(ctx context.Context, channelID, args string) error {
			tokens := SplitArgs(args)
			var name, company string
			if len(tokens) >= 1 {
				name = tokens[0]
			}
			if len(tokens) >= 2 {
				company = tokens[1]
			}
			added, err := cfg.AddEnemy(name, company)
			if err != nil {
				return err
			}
			if !added {
				return chat.SendMessage(ctx, channelID, "that player is already on the enemy list.")
			}
			return chat.SendMessage(ctx, channelID, "added to the enemy list.")
		},
	}
}

func delEnemyCommand(cfg *config.Store, chat domain.ChatClient, token, usage string) *Command {
	return &Command{
		Token:   token,
		HasArgs: true,
		Usage:   usage,
		Validate: func(args string) string {
			if strings.TrimSpace(args) == "" {
				return "enter a player name."
			}
			// The whole argument string is the name, as entered on add.
			if !cfg.HasEnemy(args) {
				return "no such enemy player."
			}
			return ""
		},
		Run: func(ctx context.Context, channelID, args string) error {
			removed, err := cfg.DeleteEnemy(args)
			if err != nil {
				return err
			}
			if !removed {
				return chat.SendMessage(ctx, channelID, "no such enemy player.")
			}
			return chat.SendMessage(ctx, channelID, "removed from the enemy list.")
		},
	}
}

func listEnemyCommand(cfg *config.Store, chat domain.ChatClient, token, usage string) *Command {
	return &Command{
		Token: token,
		Usage: usage,
		Run: func(ctx context.Context, channelID, _ string) error {
			return chat.SendMessage(ctx, channelID, "enemy players: "+cfg.ListEnemies())
		},
	}
}

func addServerCommand(chat domain.ChatClient) *Command {
	return &Command{
		Token:   "/add server",
		HasArgs: true,
		Usage: "`/add server [code(A1-O15)]`" +
			"\nadds a server to the watch targets." +
			"\na report channel named after the server is created; watch output goes there.",
		Validate: func(args string) string {
			if !cluster.IsServerCode(args) {
				return "enter a server code between A1 and O15."
			}
			if channelExists(chat, args) {
				return "that server is already being watched."
			}
			return ""
		},
		Run: func(ctx context.Context, channelID, args string) error {
			code := cluster.Normalize(args)
			if _, err := chat.CreateChannel(ctx, code); err != nil {
				return fmt.Errorf("creating channel %s: %w", code, err)
			}
			return chat.SendMessage(ctx, channelID,
				fmt.Sprintf("%s channel added. watch reports will be posted there.", code))
		},
	}
}

func delServerCommand(chat domain.ChatClient) *Command {
	return &Command{
		Token:   "/del server",
		HasArgs: true,
		Usage: "`/del server [code(A1-O15)]`" +
			"\nremoves a server from the watch targets." +
			"\nthe server's report channel is deleted as well.",
		Validate: func(args string) string {
			if !cluster.IsServerCode(args) {
				return "enter a server code between A1 and O15."
			}
			if !channelExists(chat, args) {
				return "that server is not being watched."
			}
			return ""
		},
		Run: func(ctx context.Context, channelID, args string) error {
			code := cluster.Normalize(args)
			ch, ok := findChannel(chat, code)
			if !ok {
				return chat.SendMessage(ctx, channelID, "that server is not being watched.")
			}
			if err := chat.DeleteChannel(ctx, ch.ID); err != nil {
				return fmt.Errorf("deleting channel %s: %w", code, err)
			}
			return chat.SendMessage(ctx, channelID, fmt.Sprintf("%s channel removed.", code))
		},
	}
}

func statusCommand(cfg *config.Store, chat domain.ChatClient, w *watch.Watcher) *Command {
	return &Command{
		Token: "/status",
		Usage: "`/status`" +
			"\nshows the current settings and watch state.",
		Run: func(ctx context.Context, channelID, _ string) error {
			state := "stopped"
			if w.Running() {
				state = "watching"
			}
			noticed := strings.Join(w.NoticedServers(), ", ")
			if noticed == "" {
				noticed = "none"
			}
			world := cfg.WatchWorld()
			msg := fmt.Sprintf("watch state: %s"+
				"\nwatch world: %d (%s)"+
				"\nwatch interval: %d sec"+
				"\nsurge threshold: %d players"+
				"\nenemy players: %s"+
				"\nservers with enemies present: %s",
				state, world, cluster.ClusterName(world),
				cfg.WatchIntervalSeconds(), cfg.SurgeThreshold(),
				cfg.ListEnemies(), noticed)
			return chat.SendMessage(ctx, channelID, msg)
		},
	}
}

func setWorldCommand(cfg *config.Store, chat domain.ChatClient) *Command {
	return &Command{
		Token:   "/set world",
		HasArgs: true,
		Usage: "`/set world [1-4]`" +
			"\nsets the watched world." +
			"\n(1: NA PvE, 2: NA PvP, 3: EU PvE, 4: EU PvP)",
		Validate: func(args string) string {
			n, ok := parseNumber(args)
			if !ok || !cluster.IsWorld(n) {
				return "enter a number between 1 and 4."
			}
			return ""
		},
		Run: func(ctx context.Context, channelID, args string) error {
			n, _ := parseNumber(args)
			if err := cfg.SetWatchWorld(n); err != nil {
				return err
			}
			return chat.SendMessage(ctx, channelID,
				fmt.Sprintf("watch world set to %d (%s).", n, cluster.ClusterName(n)))
		},
	}
}

func setIntervalCommand(cfg *config.Store, chat domain.ChatClient) *Command {
	return &Command{
		Token:   "/set interval",
		HasArgs: true,
		Usage: "`/set interval [seconds]`" +
			"\nsets the watch interval in seconds." +
			"\nserver and player data is fetched and reported once per interval.",
		Validate: func(args string) string {
			if _, ok := parseNumber(args); !ok {
				return "enter the watch interval as a number of seconds."
			}
			return ""
		},
		Run: func(ctx context.Context, channelID, args string) error {
			n, _ := parseNumber(args)
			if n < config.MinWatchInterval {
				if err := chat.SendMessage(ctx, channelID,
					fmt.Sprintf("value below %d seconds, using %d.", config.MinWatchInterval, config.MinWatchInterval)); err != nil {
					return err
				}
			}
			applied, err := cfg.SetWatchInterval(n)
			if err != nil {
				return err
			}
			return chat.SendMessage(ctx, channelID,
				fmt.Sprintf("watch interval set to %d seconds.", applied))
		},
	}
}

func setSurgeCommand(cfg *config.Store, chat domain.ChatClient) *Command {
	return &Command{
		Token:   "/set player_count",
		HasArgs: true,
		Usage: "`/set player_count [count]`" +
			"\nsets the player-increase threshold for surge alerts." +
			"\nwhen the player count rises by at least this much between cycles, the report channel is alerted.",
		Validate: func(args string) string {
			if _, ok := parseNumber(args); !ok {
				return "enter the player increase count as a number."
			}
			return ""
		},
		Run: func(ctx context.Context, channelID, args string) error {
			n, _ := parseNumber(args)
			if n < config.MinSurgeThreshold {
				if err := chat.SendMessage(ctx, channelID,
					fmt.Sprintf("value below %d players, using %d.", config.MinSurgeThreshold, config.MinSurgeThreshold)); err != nil {
					return err
				}
			}
			applied, err := cfg.SetSurgeThreshold(n)
			if err != nil {
				return err
			}
			return chat.SendMessage(ctx, channelID,
				fmt.Sprintf("surge threshold set to %d players.", applied))
		},
	}
}

// parseNumber accepts non-negative decimal input only.
func parseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func channelExists(chat domain.ChatClient, name string) bool {
	_, ok := findChannel(chat, cluster.Normalize(name))
	return ok
}

func findChannel(chat domain.ChatClient, normalized string) (domain.Channel, bool) {
	for _, ch := range chat.Channels() {
		if cluster.Normalize(ch.Name) == normalized {
			return ch, true
		}
	}
	return domain.Channel{}, false
}
