// Package storage defines the persistence boundary for party state.
package storage

import (
	"context"
	"errors"

	"github.com/CryptaEcto/Discordcakebot/internal/party/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// PartyStore persists one party per (guild, channel) plus its role
// assignment rows. Implementations must make each method atomic from the
// caller's point of view.
type PartyStore interface {
	// CreateParty replaces any existing row for the party's (guild, channel)
	// key, then inserts the party and its assignment rows.
	CreateParty(ctx context.Context, party domain.Party) error

	// FetchParty reconstructs a party and its full role-assignment map.
	// Returns ErrNotFound when no party exists for the key. Role ids absent
	// from the assignment rows are filled with empty member sets by the
	// caller's catalog, not here.
	FetchParty(ctx context.Context, guildID, channelID string) (domain.Party, error)

	// DeleteParty removes the party row and cascades to its assignment rows.
	DeleteParty(ctx context.Context, guildID, channelID string) error

	// SetDisplayMessageRef stores the rendered-message reference.
	SetDisplayMessageRef(ctx context.Context, partyID, ref string) error

	// ReplaceUserRole atomically clears the user's assignment rows, keeping
	// exceptRoleID's row when non-empty, and inserts one row for roleID.
	ReplaceUserRole(ctx context.Context, partyID string, member domain.Member, roleID domain.RoleID, exceptRoleID domain.RoleID) error

	// ClearUserRoles removes the user's assignment rows, keeping
	// exceptRoleID's row when non-empty.
	ClearUserRoles(ctx context.Context, partyID, userID string, exceptRoleID domain.RoleID) error
}
