// Package command implements the chat command table: prefix matching,
// the validation chain and argument splitting.
package command

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"atlaswatch/internal/domain"
)

// helpSuffix appended to a command token requests that command's usage.
const helpSuffix = " /?"

// Command is one entry in the dispatch table. Commands are immutable
// after construction; aliases are built by constructing the same
// handler twice with different tokens.
type Command struct {
	// Token is the literal command prefix, including the leading slash.
	Token string

	// HasArgs declares the structural form: with args the input must be
	// "Token <nonempty remainder>", without it must equal Token exactly.
	HasArgs bool

	// Usage is the help text, shown on "<token> /?" and after any
	// validation failure.
	Usage string

	// Validate inspects the raw argument string and returns a rejection
	// reason, or "" to accept. Optional.
	Validate func(args string) string

	// Run executes the command body. Dispatch itself mutates nothing;
	// all side effects live here.
	Run func(ctx context.Context, channelID, args string) error
}

// matches reports whether line invokes this command (literal prefix).
func (c *Command) matches(line string) bool {
	return strings.HasPrefix(line, c.Token)
}

// isHelp reports whether line requests this command's usage.
func (c *Command) isHelp(line string) bool {
	return line == c.Token+helpSuffix
}

// structurallyValid checks the declared argument form.
func (c *Command) structurallyValid(line string) bool {
	if c.HasArgs {
		return strings.HasPrefix(line, c.Token+" ") && len(line) > len(c.Token)+1
	}
	return line == c.Token
}

// args extracts the raw argument string from a structurally valid line.
func (c *Command) args(line string) string {
	if !c.HasArgs || len(line) <= len(c.Token)+1 {
		return ""
	}
	return line[len(c.Token)+1:]
}

// Dispatcher matches incoming lines against a fixed ordered command
// table. The help command is derived from the table at construction.
type Dispatcher struct {
	chat   domain.ChatClient
	cmds   []*Command
	help   *Command
	logger *zap.Logger
}

// NewDispatcher builds a dispatcher over the given commands and
// appends the auto-derived help command.
func NewDispatcher(chat domain.ChatClient, logger *zap.Logger, cmds []*Command) *Dispatcher {
	d := &Dispatcher{chat: chat, logger: logger, cmds: cmds}
	d.help = helpCommand(d)
	d.cmds = append(d.cmds, d.help)
	return d
}

// Execute dispatches one input line. Lines not starting with "/" are
// ignored. The first command whose token prefixes the line wins; no
// match reports the command list. The validation chain short-circuits
// on first failure, composing "<reason>\n<usage>".
func (d *Dispatcher) Execute(ctx context.Context, channelID, line string) error {
	if !strings.HasPrefix(line, "/") {
		return nil
	}

	var cmd *Command
	for _, c := range d.cmds {
		if c.matches(line) {
			cmd = c
			break
		}
	}
	if cmd == nil {
		d.send(ctx, channelID, "unknown command.\n"+d.help.Usage)
		return nil
	}

	if cmd.isHelp(line) {
		d.send(ctx, channelID, cmd.Usage)
		return nil
	}

	if !cmd.structurallyValid(line) {
		d.send(ctx, channelID, "invalid command.\n"+cmd.Usage)
		return nil
	}

	args := cmd.args(line)
	if cmd.Validate != nil {
		if reason := cmd.Validate(args); reason != "" {
			d.send(ctx, channelID, reason+"\n"+cmd.Usage)
			return nil
		}
	}

	if err := cmd.Run(ctx, channelID, args); err != nil {
		d.logger.Error("command failed",
			zap.String("command", cmd.Token),
			zap.Error(err))
		d.send(ctx, channelID, "error: command failed. see the log for details.")
		return err
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, channelID, text string) {
	if err := d.chat.SendMessage(ctx, channelID, text); err != nil {
		d.logger.Warn("send failed",
			zap.String("channel", channelID),
			zap.Error(err))
	}
}

// helpCommand derives the global help from the dispatcher's table.
func helpCommand(d *Dispatcher) *Command {
	usage := "`/?`" +
		"\nshows this help." +
		"\nenter a command followed by /? (e.g. /start /?) for that command's help."
	return &Command{
		Token: "/?",
		Usage: usage,
		Run: func(ctx context.Context, channelID, _ string) error {
			parts := make([]string, 0, len(d.cmds))
			parts = append(parts, usage)
			for _, c := range d.cmds {
				if c.Token == "/?" {
					continue
				}
				parts = append(parts, c.Usage)
			}
			return d.chat.SendMessage(ctx, channelID, strings.Join(parts, "\n\n"))
		},
	}
}

// SplitArgs splits a raw argument string into tokens. When the string
// contains a double quote, quoted spans are atomic tokens (quotes
// consumed) and runs of whitespace separate the rest. Without quotes
// the string is split on single spaces, matching how multi-word names
// have historically tokenized.
func SplitArgs(args string) []string {
	if !strings.ContainsRune(args, '"') {
		return strings.Split(args, " ")
	}

	var tokens []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if tok := strings.TrimSpace(cur.String()); tok != "" {
			tokens = append(tokens, tok)
		}
		cur.Reset()
	}
	for _, r := range args {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
