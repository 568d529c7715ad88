// Package console is a terminal transport adapter for local development:
// stdin lines become commands and button presses, stdout plays the channel.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/CryptaEcto/Discordcakebot/internal/bot"
	"github.com/CryptaEcto/Discordcakebot/internal/party/render"
)

// Gateway renders bot output to a writer.
type Gateway struct {
	mu   sync.Mutex
	out  io.Writer
	refs int
}

// NewGateway creates a console gateway writing to out.
func NewGateway(out io.Writer) *Gateway {
	return &Gateway{out: out}
}

// Reply prints an ephemeral answer addressed to one user.
func (g *Gateway) Reply(_ context.Context, _ string, userID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := fmt.Fprintf(g.out, "(only %s sees) %s\n", userID, content)
	return err
}

// Send prints a shared channel message.
func (g *Gateway) Send(_ context.Context, _ string, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := fmt.Fprintln(g.out, content)
	return err
}

// SendDisplay prints a view and returns a synthetic message reference.
func (g *Gateway) SendDisplay(_ context.Context, _ string, view render.View) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refs++
	ref := fmt.Sprintf("console-%d", g.refs)
	return ref, g.printView(ref, view)
}

// EditDisplay reprints the view under its existing reference.
func (g *Gateway) EditDisplay(_ context.Context, _ string, messageRef string, view render.View) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.printView(messageRef, view)
}

func (g *Gateway) printView(ref string, view render.View) error {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s [%s] ---\n", view.Title, ref)
	b.WriteString(view.Body)
	b.WriteString("\n")
	if len(view.Buttons) > 0 {
		b.WriteString("Buttons:")
		for _, button := range view.Buttons {
			fmt.Fprintf(&b, " [%s]", button.ActionID)
		}
		b.WriteString("\n")
	}
	_, err := fmt.Fprint(g.out, b.String())
	return err
}

var _ bot.Gateway = (*Gateway)(nil)

// Run reads lines from in until EOF or context cancellation. Lines starting
// with "!" are commands; lines matching a button action id are clicks.
func Run(ctx context.Context, b *bot.Bot, in io.Reader, guildID, channelID, userID, displayName string) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errs:
					return err
				default:
					return nil
				}
			}
			dispatch(ctx, b, line, guildID, channelID, userID, displayName)
		}
	}
}

func dispatch(ctx context.Context, b *bot.Bot, line, guildID, channelID, userID, displayName string) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
	case strings.HasPrefix(line, "!"):
		_ = b.HandleCommand(ctx, bot.Command{
			GuildID:     guildID,
			ChannelID:   channelID,
			UserID:      userID,
			DisplayName: displayName,
			Content:     line,
		})
	default:
		_ = b.HandleInteraction(ctx, bot.Interaction{
			GuildID:     guildID,
			ChannelID:   channelID,
			UserID:      userID,
			DisplayName: displayName,
			ActionID:    line,
		})
	}
}
