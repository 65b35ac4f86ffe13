// Package cli implements the interactive operator console. It runs on
// stdin beside the servers and covers the day-to-day moderation commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/gobancho-project/gobancho/internal/bancho"
	"github.com/gobancho-project/gobancho/internal/config"
	"github.com/gobancho-project/gobancho/internal/packet"
	"github.com/gobancho-project/gobancho/internal/session"
)

// CLI provides an interactive command-line interface.
type CLI struct {
	cfg      *config.Config
	handlers *bancho.Handlers
	started  time.Time

	// shutdown cancels the root context; invoked by the quit command.
	shutdown context.CancelFunc
}

// NewCLI creates a new CLI handler.
func NewCLI(cfg *config.Config, handlers *bancho.Handlers, shutdown context.CancelFunc) *CLI {
	return &CLI{
		cfg:      cfg,
		handlers: handlers,
		started:  time.Now(),
		shutdown: shutdown,
	}
}

// Start begins the interactive CLI loop.
func (c *CLI) Start(ctx context.Context) {
	fmt.Println("\ngobancho console ready. Type 'help' for available commands.")
	fmt.Println("─────────────────────────────────────────────────────")

	scanner := bufio.NewScanner(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print("gobancho> ")
		if !scanner.Scan() {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		if err := c.execute(ctx, cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// execute processes a single CLI command.
func (c *CLI) execute(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "h", "?":
		c.printHelp()
	case "status", "s":
		c.printStatus()
	case "players", "p":
		c.printPlayers()
	case "announce":
		return c.cmdAnnounce(args)
	case "notify":
		return c.cmdNotify(args)
	case "kick":
		return c.cmdKick(ctx, args)
	case "quit", "exit", "q":
		fmt.Println("Shutting down gobancho...")
		c.shutdown()
	default:
		fmt.Printf("Unknown command: '%s'. Type 'help' for available commands.\n", cmd)
	}
	return nil
}

// printHelp displays available commands.
func (c *CLI) printHelp() {
	fmt.Println("\n╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                     gobancho console commands                ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Println("║  status             Show server status                       ║")
	fmt.Println("║  players            List connected players                   ║")
	fmt.Println("║  announce <msg>     Send a notification to everyone          ║")
	fmt.Println("║  notify <who> <msg> Send a notification to one player        ║")
	fmt.Println("║  kick <who>         Disconnect a player (id or name)         ║")
	fmt.Println("║  quit               Shut down gobancho                       ║")
	fmt.Println("║  help               Show this help message                   ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

// printStatus displays a one-screen server summary.
func (c *CLI) printStatus() {
	fmt.Printf("\n  Server:   %s\n", c.cfg.Bancho.ServerName)
	fmt.Printf("  Uptime:   %s\n", time.Since(c.started).Round(time.Second))
	fmt.Printf("  Online:   %d\n", c.handlers.Registry().Count())
	fmt.Println()
}

// printPlayers displays connected players in a formatted table.
func (c *CLI) printPlayers() {
	sessions := c.handlers.Registry().Snapshot()

	fmt.Println()

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"ID", "Username", "Mode", "Action", "Restricted", "Connected"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, s := range sessions {
		status := s.Status()
		tw.Append([]string{
			fmt.Sprintf("%d", s.ID),
			s.Username(),
			status.Mode.String(),
			fmt.Sprintf("%d", status.Action),
			fmt.Sprintf("%v", s.Restricted()),
			time.Since(s.CreatedAt).Round(time.Second).String(),
		})
	}

	tw.Render()
	fmt.Println()
}

func (c *CLI) cmdAnnounce(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: announce <message>")
	}

	message := strings.Join(args, " ")
	c.handlers.Registry().Broadcast(packet.Notification(message))
	fmt.Printf("Announced to %d players\n", c.handlers.Registry().Count())
	return nil
}

func (c *CLI) cmdNotify(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: notify <user_id|username> <message>")
	}

	s, err := c.findSession(args[0])
	if err != nil {
		return err
	}

	s.Enqueue(packet.Notification(strings.Join(args[1:], " ")))
	fmt.Printf("Notified %s\n", s.Username())
	return nil
}

func (c *CLI) cmdKick(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: kick <user_id|username>")
	}

	s, err := c.findSession(args[0])
	if err != nil {
		return err
	}

	username := s.Username()
	c.handlers.Kick(ctx, s, "kicked by console")
	fmt.Printf("Kicked %s\n", username)
	return nil
}

// findSession resolves a numeric user id or, failing that, a display name.
// The name comparison is case-sensitive.
func (c *CLI) findSession(arg string) (*session.Session, error) {
	if id, err := strconv.ParseInt(arg, 10, 32); err == nil {
		if s := c.handlers.Registry().GetID(int32(id)); s != nil {
			return s, nil
		}
		return nil, fmt.Errorf("no session for user %d", id)
	}

	if s := c.handlers.Registry().GetUsername(arg); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("no session for player %q", arg)
}
