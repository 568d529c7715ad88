package domain

import (
	"time"
)

// Cake-count bounds enforced at party creation.
const (
	MinCakeCount = 1
	MaxCakeCount = 50
)

// Member is one role participant: the normalized user record shape.
type Member struct {
	UserID      string
	DisplayName string
}

// PartyState is the conceptual lifecycle state of a party. It is always
// recomputed from role membership, never stored.
type PartyState int

const (
	// StateForming means at least one role still has no member.
	StateForming PartyState = iota
	// StateReadyToBake means every role has at least one member.
	StateReadyToBake
)

// Party is one running cake party, scoped to a guild channel.
type Party struct {
	ID        string
	GuildID   string
	ChannelID string
	CakeCount int
	CreatedAt time.Time
	// DisplayMessageRef locates the rendered signup message. Opaque to the
	// core; set once after creation.
	DisplayMessageRef string
	// Assignments maps every catalog role id to its ordered member list.
	// Insertion order is preserved for display.
	Assignments map[RoleID][]Member
}

// NewParty creates an empty party with one assignment slot per catalog role.
func NewParty(id, guildID, channelID string, cakeCount int, createdAt time.Time, catalog Catalog) Party {
	assignments := make(map[RoleID][]Member, catalog.Len())
	for _, role := range catalog.Roles() {
		assignments[role.ID] = []Member{}
	}
	return Party{
		ID:          id,
		GuildID:     guildID,
		ChannelID:   channelID,
		CakeCount:   cakeCount,
		CreatedAt:   createdAt,
		Assignments: assignments,
	}
}

// MembersOf returns the ordered member list for a role.
func (p Party) MembersOf(roleID RoleID) []Member {
	return p.Assignments[roleID]
}

// HasMember reports whether the user is currently in the given role.
func (p Party) HasMember(roleID RoleID, userID string) bool {
	for _, m := range p.Assignments[roleID] {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// RolesHeld returns the role ids the user currently holds, in catalog order.
func (p Party) RolesHeld(catalog Catalog, userID string) []RoleID {
	var held []RoleID
	for _, role := range catalog.Roles() {
		if p.HasMember(role.ID, userID) {
			held = append(held, role.ID)
		}
	}
	return held
}

// AllRolesFilled reports whether every catalog role has at least one member.
func (p Party) AllRolesFilled(catalog Catalog) bool {
	for _, role := range catalog.Roles() {
		if len(p.Assignments[role.ID]) == 0 {
			return false
		}
	}
	return true
}

// State recomputes the party lifecycle state from current membership.
func (p Party) State(catalog Catalog) PartyState {
	if p.AllRolesFilled(catalog) {
		return StateReadyToBake
	}
	return StateForming
}

// EffectiveCapacity returns the capacity that applies to a role right now.
func (p Party) EffectiveCapacity(catalog Catalog, roleID RoleID) int {
	role, ok := catalog.Role(roleID)
	if !ok {
		return 0
	}
	return role.Capacity.Effective(p.AllRolesFilled(catalog))
}

// AddMember appends the user to the role's member set if not already present.
func (p *Party) AddMember(roleID RoleID, member Member) {
	if p.HasMember(roleID, member.UserID) {
		return
	}
	p.Assignments[roleID] = append(p.Assignments[roleID], member)
}

// RemoveMember removes the user from one role. Reports whether a removal
// happened.
func (p *Party) RemoveMember(roleID RoleID, userID string) bool {
	members := p.Assignments[roleID]
	for i, m := range members {
		if m.UserID == userID {
			p.Assignments[roleID] = append(members[:i:i], members[i+1:]...)
			return true
		}
	}
	return false
}

// ParticipantCount returns the number of distinct users holding a role.
func (p Party) ParticipantCount() int {
	seen := make(map[string]struct{})
	for _, members := range p.Assignments {
		for _, m := range members {
			seen[m.UserID] = struct{}{}
		}
	}
	return len(seen)
}

// Snapshot returns a deep copy safe to hand to renderers.
func (p Party) Snapshot() Party {
	copied := p
	copied.Assignments = make(map[RoleID][]Member, len(p.Assignments))
	for roleID, members := range p.Assignments {
		copied.Assignments[roleID] = append([]Member(nil), members...)
	}
	return copied
}

// RoleSummary is the terminal membership view of one role.
type RoleSummary struct {
	RoleID      RoleID
	DisplayName string
	Members     []Member
}

// Summary is the terminal view produced when a party ends.
type Summary struct {
	CakeCount         int
	TotalParticipants int
	Roles             []RoleSummary
}

// Summarize builds the terminal summary view of a party.
func (p Party) Summarize(catalog Catalog) Summary {
	summary := Summary{
		CakeCount:         p.CakeCount,
		TotalParticipants: p.ParticipantCount(),
	}
	for _, role := range catalog.Roles() {
		summary.Roles = append(summary.Roles, RoleSummary{
			RoleID:      role.ID,
			DisplayName: role.DisplayName,
			Members:     append([]Member(nil), p.Assignments[role.ID]...),
		})
	}
	return summary
}
