// Package service orchestrates party lifecycle and role-assignment rules.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/CryptaEcto/Discordcakebot/internal/party/domain"
	"github.com/CryptaEcto/Discordcakebot/internal/party/storage"
	"github.com/CryptaEcto/Discordcakebot/internal/platform/id"
)

var (
	// ErrPartyActive indicates a live party already exists for the channel.
	ErrPartyActive = errors.New("a cake party is already active for this channel")
	// ErrInvalidCakeCount indicates a cake count outside the allowed range.
	ErrInvalidCakeCount = errors.New("cake count must be between 1 and 50")
	// ErrNoActiveParty indicates no live party exists for the channel.
	ErrNoActiveParty = errors.New("no active cake party for this channel")
	// ErrUnknownRole indicates a role id missing from the catalog.
	ErrUnknownRole = errors.New("unknown role")
	// ErrRoleFull indicates the role is at its effective capacity.
	ErrRoleFull = errors.New("role is full")
	// ErrNoCurrentRole indicates the user holds no role to leave.
	ErrNoCurrentRole = errors.New("user holds no role")
	// ErrNotReady indicates not every role has a member yet.
	ErrNotReady = errors.New("not all roles are filled")
	// ErrDisplayRefSet indicates the display message ref was already set.
	ErrDisplayRefSet = errors.New("display message ref is already set")
)

// JoinResult reports what a join changed, for user-facing messaging.
type JoinResult struct {
	// Joined is the display name of the role joined.
	Joined string
	// Prior lists the display names of roles vacated by this join.
	Prior []string
	// DualWith names the partner role preserved alongside the join, if any.
	DualWith string
	// Already reports an idempotent re-join of a role the user held.
	Already bool
}

// Manager is the stateful party core: it owns the in-memory cache of live
// parties, applies role-assignment rules, and keeps the store synchronized.
// One Manager per process is the single logical authority for its keys.
type Manager struct {
	store   storage.PartyStore
	catalog domain.Catalog
	clock   func() time.Time
	newID   func() (string, error)

	mu      sync.Mutex
	parties map[string]*partyEntry
}

// partyEntry serializes all mutations for one (guild, channel) key. The
// capacity check and insert below must not interleave across joins.
type partyEntry struct {
	mu       sync.Mutex
	party    domain.Party
	degraded bool
}

// NewManager constructs the party session manager.
func NewManager(store storage.PartyStore, catalog domain.Catalog, clock func() time.Time, newID func() (string, error)) *Manager {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Manager{
		store:   store,
		catalog: catalog,
		clock:   clock,
		newID:   newID,
		parties: make(map[string]*partyEntry),
	}
}

// Catalog returns the role catalog the manager operates on.
func (m *Manager) Catalog() domain.Catalog {
	return m.catalog
}

func partyKey(guildID, channelID string) string {
	return guildID + "/" + channelID
}

// persist runs a store mutation for an already-applied cache change. On
// failure the party continues in memory and the entry is flagged degraded;
// the user action is never dropped.
func (e *partyEntry) persist(op string, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		e.degraded = true
		log.Printf("party store unavailable, continuing in memory op=%s guild_id=%s channel_id=%s: %v",
			op, e.party.GuildID, e.party.ChannelID, err)
	}
}

// entry returns the cached party for a key, loading it from the store on a
// miss. Returns ErrNoActiveParty when neither cache nor store has one.
func (m *Manager) entry(ctx context.Context, guildID, channelID string) (*partyEntry, error) {
	key := partyKey(guildID, channelID)

	m.mu.Lock()
	if e, ok := m.parties[key]; ok {
		m.mu.Unlock()
		return e, nil
	}
	m.mu.Unlock()

	party, err := m.store.FetchParty(ctx, guildID, channelID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoActiveParty
		}
		return nil, fmt.Errorf("load party: %w", err)
	}
	m.fillMissingRoles(&party)

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.parties[key]; ok {
		return e, nil
	}
	e := &partyEntry{party: party}
	m.parties[key] = e
	return e, nil
}

// fillMissingRoles guarantees an assignment slot for every catalog role.
func (m *Manager) fillMissingRoles(party *domain.Party) {
	if party.Assignments == nil {
		party.Assignments = make(map[domain.RoleID][]domain.Member, m.catalog.Len())
	}
	for _, role := range m.catalog.Roles() {
		if _, ok := party.Assignments[role.ID]; !ok {
			party.Assignments[role.ID] = []domain.Member{}
		}
	}
}

// CreateParty starts a new party for the channel. Fails with ErrPartyActive
// when one exists and ErrInvalidCakeCount when the count is out of range.
func (m *Manager) CreateParty(ctx context.Context, guildID, channelID string, cakeCount int) (domain.Party, error) {
	if cakeCount < domain.MinCakeCount || cakeCount > domain.MaxCakeCount {
		return domain.Party{}, ErrInvalidCakeCount
	}

	key := partyKey(guildID, channelID)
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.parties[key]; ok {
		return domain.Party{}, ErrPartyActive
	}

	existing, err := m.store.FetchParty(ctx, guildID, channelID)
	if err == nil {
		m.fillMissingRoles(&existing)
		m.parties[key] = &partyEntry{party: existing}
		return domain.Party{}, ErrPartyActive
	}
	if !errors.Is(err, storage.ErrNotFound) {
		log.Printf("party store unavailable during create check guild_id=%s channel_id=%s: %v",
			guildID, channelID, err)
	}

	partyID, err := m.newID()
	if err != nil {
		return domain.Party{}, fmt.Errorf("generate party id: %w", err)
	}

	party := domain.NewParty(partyID, guildID, channelID, cakeCount, m.clock().UTC(), m.catalog)
	e := &partyEntry{party: party}
	e.persist("create_party", func() error {
		return m.store.CreateParty(ctx, party)
	})
	m.parties[key] = e
	return party.Snapshot(), nil
}

// JoinRole moves the user into a role, applying capacity rules and the
// dual-role exception. Re-joining a held role is an idempotent no-op.
func (m *Manager) JoinRole(ctx context.Context, guildID, channelID, userID, displayName string, roleID domain.RoleID) (JoinResult, error) {
	role, ok := m.catalog.Role(roleID)
	if !ok {
		return JoinResult{}, fmt.Errorf("%w: %s", ErrUnknownRole, roleID)
	}

	e, err := m.entry(ctx, guildID, channelID)
	if err != nil {
		return JoinResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	party := &e.party

	if party.HasMember(roleID, userID) {
		return JoinResult{Joined: role.DisplayName, Already: true}, nil
	}

	held := party.RolesHeld(m.catalog, userID)

	// The dual-role exception: when joining a role whose declared partner
	// the user already holds, the partner assignment is preserved.
	var keep domain.RoleID
	for _, heldID := range held {
		if role.DualRolePartner != "" && heldID == role.DualRolePartner {
			keep = heldID
		}
	}

	var vacate []domain.RoleID
	for _, heldID := range held {
		if heldID != keep {
			vacate = append(vacate, heldID)
		}
	}

	// Capacity is checked against the state as it will be immediately
	// before insertion, with the effective cap recomputed fresh.
	trial := party.Snapshot()
	for _, vacated := range vacate {
		trial.RemoveMember(vacated, userID)
	}
	effectiveCap := role.Capacity.Effective(trial.AllRolesFilled(m.catalog))
	if len(trial.MembersOf(roleID)) >= effectiveCap {
		return JoinResult{}, fmt.Errorf("%w: %s (%d max)", ErrRoleFull, role.DisplayName, effectiveCap)
	}

	result := JoinResult{Joined: role.DisplayName}
	for _, vacated := range vacate {
		party.RemoveMember(vacated, userID)
		if def, ok := m.catalog.Role(vacated); ok {
			result.Prior = append(result.Prior, def.DisplayName)
		}
	}
	if keep != "" {
		if def, ok := m.catalog.Role(keep); ok {
			result.DualWith = def.DisplayName
		}
	}

	member := domain.Member{UserID: userID, DisplayName: displayName}
	party.AddMember(roleID, member)
	e.persist("join_role", func() error {
		return m.store.ReplaceUserRole(ctx, party.ID, member, roleID, keep)
	})
	return result, nil
}

// LeaveRole removes the user from every role they hold and returns the
// vacated label, "&"-joined for a dual assignment.
func (m *Manager) LeaveRole(ctx context.Context, guildID, channelID, userID string) (string, error) {
	e, err := m.entry(ctx, guildID, channelID)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	party := &e.party

	held := party.RolesHeld(m.catalog, userID)
	if len(held) == 0 {
		return "", ErrNoCurrentRole
	}

	label := m.labelFor(held)
	for _, roleID := range held {
		party.RemoveMember(roleID, userID)
	}
	e.persist("leave_role", func() error {
		return m.store.ClearUserRoles(ctx, party.ID, userID, "")
	})
	return label, nil
}

// UserRoleLabel returns the display label of the user's current role(s),
// dual roles joined with "&". The boolean reports whether any role is held.
func (m *Manager) UserRoleLabel(ctx context.Context, guildID, channelID, userID string) (string, bool, error) {
	e, err := m.entry(ctx, guildID, channelID)
	if err != nil {
		return "", false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	held := e.party.RolesHeld(m.catalog, userID)
	if len(held) == 0 {
		return "", false, nil
	}
	return m.labelFor(held), true, nil
}

func (m *Manager) labelFor(held []domain.RoleID) string {
	labels := make([]string, 0, len(held))
	for _, roleID := range held {
		if def, ok := m.catalog.Role(roleID); ok {
			labels = append(labels, def.DisplayName)
		}
	}
	return strings.Join(labels, " & ")
}

// Ready reports whether the party can start baking. Fails with ErrNotReady
// while any role is still empty.
func (m *Manager) Ready(ctx context.Context, guildID, channelID string) error {
	e, err := m.entry(ctx, guildID, channelID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.party.AllRolesFilled(m.catalog) {
		return ErrNotReady
	}
	return nil
}

// Party returns a snapshot of the live party for rendering.
func (m *Manager) Party(ctx context.Context, guildID, channelID string) (domain.Party, error) {
	e, err := m.entry(ctx, guildID, channelID)
	if err != nil {
		return domain.Party{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.party.Snapshot(), nil
}

// SetDisplayMessageRef records where the rendered party message lives.
// Settable once after creation.
func (m *Manager) SetDisplayMessageRef(ctx context.Context, guildID, channelID, ref string) error {
	e, err := m.entry(ctx, guildID, channelID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.party.DisplayMessageRef != "" && e.party.DisplayMessageRef != ref {
		return ErrDisplayRefSet
	}
	e.party.DisplayMessageRef = ref
	e.persist("set_message_ref", func() error {
		return m.store.SetDisplayMessageRef(ctx, e.party.ID, ref)
	})
	return nil
}

// EndParty produces the terminal summary, deletes the party from the store,
// and evicts it from the cache. Irreversible.
func (m *Manager) EndParty(ctx context.Context, guildID, channelID string) (domain.Summary, error) {
	e, err := m.entry(ctx, guildID, channelID)
	if err != nil {
		return domain.Summary{}, err
	}

	e.mu.Lock()
	summary := e.party.Summarize(m.catalog)
	if err := m.store.DeleteParty(ctx, guildID, channelID); err != nil {
		log.Printf("party store unavailable during delete guild_id=%s channel_id=%s: %v",
			guildID, channelID, err)
	}
	e.mu.Unlock()

	m.mu.Lock()
	delete(m.parties, partyKey(guildID, channelID))
	m.mu.Unlock()

	return summary, nil
}

// Degraded reports whether the cached party has unpersisted mutations.
func (m *Manager) Degraded(guildID, channelID string) bool {
	m.mu.Lock()
	e, ok := m.parties[partyKey(guildID, channelID)]
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.degraded
}
