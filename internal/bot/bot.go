// Package bot routes chat commands and button interactions to the party
// session manager. The chat platform itself stays behind the Gateway and
// Authorizer ports: the transport adapter authenticates actors and delivers
// events; this package applies the rules and answers.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/CryptaEcto/Discordcakebot/internal/party/domain"
	"github.com/CryptaEcto/Discordcakebot/internal/party/render"
	"github.com/CryptaEcto/Discordcakebot/internal/party/service"
)

// ErrUnauthorized indicates the actor may not run a privileged command.
var ErrUnauthorized = errors.New("not authorized")

// Command is one text command delivered by the transport adapter, with the
// actor already authenticated.
type Command struct {
	GuildID     string
	ChannelID   string
	UserID      string
	DisplayName string
	Content     string
}

// Interaction is one button click delivered by the transport adapter.
type Interaction struct {
	GuildID     string
	ChannelID   string
	UserID      string
	DisplayName string
	ActionID    string
}

// Gateway is the outbound chat surface. Reply is visible only to the acting
// user; Send and the display methods address the shared channel.
type Gateway interface {
	Reply(ctx context.Context, channelID, userID, content string) error
	Send(ctx context.Context, channelID, content string) error
	SendDisplay(ctx context.Context, channelID string, view render.View) (messageRef string, err error)
	EditDisplay(ctx context.Context, channelID, messageRef string, view render.View) error
}

// Authorizer decides whether a user may run privileged party commands. The
// concrete predicate (platform permission bits, host allow-lists) belongs to
// the transport adapter.
type Authorizer interface {
	IsModerator(ctx context.Context, guildID, userID string) (bool, error)
}

// AllowAll authorizes every user. Useful for tests and local development.
type AllowAll struct{}

// IsModerator always returns true.
func (AllowAll) IsModerator(context.Context, string, string) (bool, error) {
	return true, nil
}

const genericErrorReply = "Sorry, something went wrong processing your request."

// Bot wires the session manager, renderer, and gateway together.
type Bot struct {
	manager *service.Manager
	gateway Gateway
	auth    Authorizer
	tracer  trace.Tracer
}

// New constructs the bot router. A nil auth defaults to AllowAll.
func New(manager *service.Manager, gateway Gateway, auth Authorizer) *Bot {
	if auth == nil {
		auth = AllowAll{}
	}
	return &Bot{
		manager: manager,
		gateway: gateway,
		auth:    auth,
		tracer:  otel.Tracer("cakebot"),
	}
}

// HandleCommand processes one text command. Rule violations are answered
// directly to the actor; unexpected failures are logged and answered with a
// generic message so one failed command never affects others.
func (b *Bot) HandleCommand(ctx context.Context, cmd Command) error {
	content := strings.TrimSpace(cmd.Content)

	var handle func(context.Context, Command) error
	switch {
	case content == "!cakehelp":
		handle = b.handleHelp
	case content == "!startcakeparty" || strings.HasPrefix(content, "!startcakeparty "):
		handle = b.handleStartParty
	case content == "!endcake":
		handle = b.handleEndParty
	case content == "!readysetbake":
		handle = b.handleReadySetBake
	default:
		return nil
	}

	ctx, span := b.tracer.Start(ctx, "cakebot.command",
		trace.WithAttributes(
			attribute.String("cakebot.guild_id", cmd.GuildID),
			attribute.String("cakebot.channel_id", cmd.ChannelID),
		))
	defer span.End()

	if err := handle(ctx, cmd); err != nil {
		log.Printf("handle command guild_id=%s channel_id=%s: %v", cmd.GuildID, cmd.ChannelID, err)
		return b.gateway.Reply(ctx, cmd.ChannelID, cmd.UserID, genericErrorReply)
	}
	return nil
}

func (b *Bot) handleHelp(ctx context.Context, cmd Command) error {
	return b.gateway.Send(ctx, cmd.ChannelID, render.HelpText())
}

func (b *Bot) handleStartParty(ctx context.Context, cmd Command) error {
	if err := b.authorize(ctx, cmd); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return b.gateway.Reply(ctx, cmd.ChannelID, cmd.UserID, "❌ You do not have permission to use this command.")
		}
		return err
	}

	args := strings.Fields(cmd.Content)
	if len(args) < 2 {
		return b.gateway.Reply(ctx, cmd.ChannelID, cmd.UserID,
			"Please specify how many cakes to make! Example: `!startcakeparty 3`")
	}
	cakeCount, err := strconv.Atoi(args[1])
	if err != nil {
		return b.gateway.Reply(ctx, cmd.ChannelID, cmd.UserID,
			"Please provide a valid number of cakes! Example: `!startcakeparty 3`")
	}

	party, err := b.manager.CreateParty(ctx, cmd.GuildID, cmd.ChannelID, cakeCount)
	if err != nil {
		if message, known := userMessage(err); known {
			return b.gateway.Reply(ctx, cmd.ChannelID, cmd.UserID, message)
		}
		return fmt.Errorf("create party: %w", err)
	}

	view := render.PartyView(party, b.manager.Catalog())
	ref, err := b.gateway.SendDisplay(ctx, cmd.ChannelID, view)
	if err != nil {
		return fmt.Errorf("send party display: %w", err)
	}
	if err := b.manager.SetDisplayMessageRef(ctx, cmd.GuildID, cmd.ChannelID, ref); err != nil {
		log.Printf("set display ref guild_id=%s channel_id=%s: %v", cmd.GuildID, cmd.ChannelID, err)
	}
	log.Printf("started cake party guild_id=%s channel_id=%s cake_count=%d", cmd.GuildID, cmd.ChannelID, party.CakeCount)
	return nil
}

func (b *Bot) handleEndParty(ctx context.Context, cmd Command) error {
	if err := b.authorize(ctx, cmd); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return b.gateway.Reply(ctx, cmd.ChannelID, cmd.UserID, "❌ You do not have permission to use this command.")
		}
		return err
	}

	summary, err := b.manager.EndParty(ctx, cmd.GuildID, cmd.ChannelID)
	if err != nil {
		if message, known := userMessage(err); known {
			return b.gateway.Reply(ctx, cmd.ChannelID, cmd.UserID, message)
		}
		return fmt.Errorf("end party: %w", err)
	}

	if _, err := b.gateway.SendDisplay(ctx, cmd.ChannelID, render.Summary(summary)); err != nil {
		return fmt.Errorf("send party summary: %w", err)
	}
	log.Printf("ended cake party guild_id=%s channel_id=%s participants=%d", cmd.GuildID, cmd.ChannelID, summary.TotalParticipants)
	return nil
}

func (b *Bot) handleReadySetBake(ctx context.Context, cmd Command) error {
	if err := b.authorize(ctx, cmd); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return b.gateway.Reply(ctx, cmd.ChannelID, cmd.UserID, "❌ You do not have permission to use this command.")
		}
		return err
	}

	if err := b.manager.Ready(ctx, cmd.GuildID, cmd.ChannelID); err != nil {
		if message, known := userMessage(err); known {
			return b.gateway.Reply(ctx, cmd.ChannelID, cmd.UserID, message)
		}
		return fmt.Errorf("ready check: %w", err)
	}

	return b.gateway.Send(ctx, cmd.ChannelID,
		"🎂 **Ready, set, bake!** All roles are filled. Check your ingredients and have fun!")
}

func (b *Bot) authorize(ctx context.Context, cmd Command) error {
	ok, err := b.auth.IsModerator(ctx, cmd.GuildID, cmd.UserID)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// HandleInteraction processes one button click: the actor gets an ephemeral
// answer and the shared party display is re-rendered.
func (b *Bot) HandleInteraction(ctx context.Context, in Interaction) error {
	ctx, span := b.tracer.Start(ctx, "cakebot.interaction",
		trace.WithAttributes(
			attribute.String("cakebot.guild_id", in.GuildID),
			attribute.String("cakebot.channel_id", in.ChannelID),
			attribute.String("cakebot.action_id", in.ActionID),
		))
	defer span.End()

	var err error
	switch {
	case in.ActionID == render.LeaveActionID:
		err = b.handleLeave(ctx, in)
	default:
		roleID, ok := render.RoleIDFromAction(in.ActionID)
		if !ok {
			return nil
		}
		err = b.handleJoin(ctx, in, roleID)
	}
	if err != nil {
		log.Printf("handle interaction guild_id=%s channel_id=%s action=%s: %v",
			in.GuildID, in.ChannelID, in.ActionID, err)
		return b.gateway.Reply(ctx, in.ChannelID, in.UserID, genericErrorReply)
	}
	return nil
}

func (b *Bot) handleLeave(ctx context.Context, in Interaction) error {
	label, err := b.manager.LeaveRole(ctx, in.GuildID, in.ChannelID, in.UserID)
	if err != nil {
		if message, known := userMessage(err); known {
			return b.gateway.Reply(ctx, in.ChannelID, in.UserID, message)
		}
		return fmt.Errorf("leave role: %w", err)
	}

	if err := b.gateway.Reply(ctx, in.ChannelID, in.UserID,
		fmt.Sprintf("You've left your role as a **%s**!", label)); err != nil {
		return err
	}
	b.refreshDisplay(ctx, in.GuildID, in.ChannelID)
	return nil
}

func (b *Bot) handleJoin(ctx context.Context, in Interaction, roleID domain.RoleID) error {
	result, err := b.manager.JoinRole(ctx, in.GuildID, in.ChannelID, in.UserID, in.DisplayName, roleID)
	if err != nil {
		if message, known := userMessage(err); known {
			return b.gateway.Reply(ctx, in.ChannelID, in.UserID, message)
		}
		return fmt.Errorf("join role: %w", err)
	}

	var reply string
	switch {
	case result.Already:
		reply = fmt.Sprintf("You're already signed up as a **%s**.", result.Joined)
	case result.DualWith != "":
		reply = fmt.Sprintf("You've joined as a **%s** alongside your **%s** role!", result.Joined, result.DualWith)
	case len(result.Prior) > 0:
		reply = fmt.Sprintf("You've switched from **%s** to **%s**!", strings.Join(result.Prior, " & "), result.Joined)
	default:
		reply = fmt.Sprintf("You've joined as a **%s**!", result.Joined)
	}
	if err := b.gateway.Reply(ctx, in.ChannelID, in.UserID, reply); err != nil {
		return err
	}

	if !result.Already {
		b.refreshDisplay(ctx, in.GuildID, in.ChannelID)
	}
	return nil
}

// refreshDisplay re-renders the shared party message. Failures are logged
// only: the user's action already succeeded.
func (b *Bot) refreshDisplay(ctx context.Context, guildID, channelID string) {
	party, err := b.manager.Party(ctx, guildID, channelID)
	if err != nil {
		log.Printf("refresh display guild_id=%s channel_id=%s: %v", guildID, channelID, err)
		return
	}
	if party.DisplayMessageRef == "" {
		return
	}
	view := render.PartyView(party, b.manager.Catalog())
	if err := b.gateway.EditDisplay(ctx, channelID, party.DisplayMessageRef, view); err != nil {
		log.Printf("update party display guild_id=%s channel_id=%s: %v", guildID, channelID, err)
	}
}

// userMessage maps recoverable rule violations to direct user replies.
func userMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrPartyActive):
		return "There's already an active cake party in this channel! Join that one or end it first.", true
	case errors.Is(err, service.ErrInvalidCakeCount):
		return fmt.Sprintf("You can make between %d and %d cakes! Please try again.", domain.MinCakeCount, domain.MaxCakeCount), true
	case errors.Is(err, service.ErrNoActiveParty):
		return "This cake party is no longer active. Start a new one with !startcakeparty <number>", true
	case errors.Is(err, service.ErrUnknownRole):
		return "That role doesn't exist!", true
	case errors.Is(err, service.ErrRoleFull):
		return "❌ That role is full right now. Try another one!", true
	case errors.Is(err, service.ErrNoCurrentRole):
		return "You don't currently have a role to leave!", true
	case errors.Is(err, service.ErrNotReady):
		return "Not every role has a member yet! Fill all roles before baking.", true
	default:
		return "", false
	}
}
