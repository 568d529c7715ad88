package console

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/CryptaEcto/Discordcakebot/internal/bot"
	"github.com/CryptaEcto/Discordcakebot/internal/party/domain"
	"github.com/CryptaEcto/Discordcakebot/internal/party/render"
	"github.com/CryptaEcto/Discordcakebot/internal/party/service"
	"github.com/CryptaEcto/Discordcakebot/internal/party/storage"
)

type nullStore struct{}

func (nullStore) CreateParty(context.Context, domain.Party) error { return nil }
func (nullStore) FetchParty(context.Context, string, string) (domain.Party, error) {
	return domain.Party{}, storage.ErrNotFound
}
func (nullStore) DeleteParty(context.Context, string, string) error          { return nil }
func (nullStore) SetDisplayMessageRef(context.Context, string, string) error { return nil }
func (nullStore) ReplaceUserRole(context.Context, string, domain.Member, domain.RoleID, domain.RoleID) error {
	return nil
}
func (nullStore) ClearUserRoles(context.Context, string, string, domain.RoleID) error { return nil }

func TestGatewayReply(t *testing.T) {
	var out strings.Builder
	g := NewGateway(&out)
	if err := g.Reply(context.Background(), "c1", "u1", "hello"); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got := out.String(); got != "(only u1 sees) hello\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestGatewayDisplayRefs(t *testing.T) {
	var out strings.Builder
	g := NewGateway(&out)
	ctx := context.Background()
	view := render.View{Title: "T", Body: "B", Buttons: []render.Button{{ActionID: "join_baker"}}}

	ref1, err := g.SendDisplay(ctx, "c1", view)
	if err != nil {
		t.Fatalf("send display: %v", err)
	}
	ref2, err := g.SendDisplay(ctx, "c1", view)
	if err != nil {
		t.Fatalf("send display: %v", err)
	}
	if ref1 == ref2 {
		t.Fatalf("expected distinct refs, got %q twice", ref1)
	}
	if !strings.Contains(out.String(), "[join_baker]") {
		t.Fatalf("buttons missing from output:\n%s", out.String())
	}

	if err := g.EditDisplay(ctx, "c1", ref1, render.View{Title: "T2", Body: "B2"}); err != nil {
		t.Fatalf("edit display: %v", err)
	}
	if !strings.Contains(out.String(), "T2 ["+ref1+"]") {
		t.Fatalf("edit did not reuse ref:\n%s", out.String())
	}
}

func TestRunDispatchesLines(t *testing.T) {
	manager := service.NewManager(nullStore{}, domain.DefaultCatalog(), nil, nil)
	var out strings.Builder
	router := bot.New(manager, NewGateway(&out), bot.AllowAll{})

	in := strings.NewReader("!startcakeparty 2\njoin_leafer\n\nnot a command\n")
	if err := Run(context.Background(), router, in, "g1", "c1", "u1", "Ann"); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(out.String(), "Making 2 cakes!") {
		t.Fatalf("party display missing:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "joined as a **Leafer**") {
		t.Fatalf("join reply missing:\n%s", out.String())
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	manager := service.NewManager(nullStore{}, domain.DefaultCatalog(), nil, nil)
	router := bot.New(manager, NewGateway(&strings.Builder{}), bot.AllowAll{})

	// A pipe with no writer blocks the scanner, so only cancellation can
	// end the run.
	pr, pw := io.Pipe()
	defer func() {
		_ = pw.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, router, pr, "g1", "c1", "u1", "Ann"); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
