package domain

import (
	"testing"
	"time"
)

func newTestParty(t *testing.T) (Party, Catalog) {
	t.Helper()
	catalog := DefaultCatalog()
	party := NewParty("party-1", "guild-1", "channel-1", 2, time.Now(), catalog)
	return party, catalog
}

func TestNewPartyHasSlotPerRole(t *testing.T) {
	party, catalog := newTestParty(t)
	if len(party.Assignments) != catalog.Len() {
		t.Fatalf("expected %d assignment slots, got %d", catalog.Len(), len(party.Assignments))
	}
	for _, role := range catalog.Roles() {
		members, ok := party.Assignments[role.ID]
		if !ok {
			t.Fatalf("missing assignment slot for %s", role.ID)
		}
		if len(members) != 0 {
			t.Fatalf("expected empty slot for %s", role.ID)
		}
	}
}

func TestStateRecomputedFromMembership(t *testing.T) {
	party, catalog := newTestParty(t)
	if party.State(catalog) != StateForming {
		t.Fatal("empty party should be forming")
	}

	for i, role := range catalog.Roles() {
		party.AddMember(role.ID, Member{UserID: string(rune('a' + i)), DisplayName: "m"})
	}
	if party.State(catalog) != StateReadyToBake {
		t.Fatal("party with every role filled should be ready to bake")
	}

	party.RemoveMember(RoleStarter, "a")
	if party.State(catalog) != StateForming {
		t.Fatal("vacating a role should drop the party back to forming")
	}
}

func TestEffectiveCapacityExpandsWhenFilled(t *testing.T) {
	party, catalog := newTestParty(t)
	if got := party.EffectiveCapacity(catalog, RoleBaker); got != 1 {
		t.Fatalf("expected throttled capacity 1 while forming, got %d", got)
	}

	for i, role := range catalog.Roles() {
		party.AddMember(role.ID, Member{UserID: string(rune('a' + i))})
	}
	if got := party.EffectiveCapacity(catalog, RoleBaker); got != 3 {
		t.Fatalf("expected expanded capacity 3, got %d", got)
	}
	if got := party.EffectiveCapacity(catalog, "icer"); got != 0 {
		t.Fatalf("expected 0 for unknown role, got %d", got)
	}
}

func TestAddMemberIsIdempotent(t *testing.T) {
	party, _ := newTestParty(t)
	member := Member{UserID: "u1", DisplayName: "Ann"}
	party.AddMember(RoleBatterer, member)
	party.AddMember(RoleBatterer, member)
	if got := len(party.MembersOf(RoleBatterer)); got != 1 {
		t.Fatalf("expected 1 member after duplicate add, got %d", got)
	}
}

func TestRemoveMemberPreservesOrder(t *testing.T) {
	party, _ := newTestParty(t)
	party.AddMember(RoleBatterer, Member{UserID: "u1"})
	party.AddMember(RoleBatterer, Member{UserID: "u2"})
	party.AddMember(RoleBatterer, Member{UserID: "u3"})

	if !party.RemoveMember(RoleBatterer, "u2") {
		t.Fatal("expected removal to report true")
	}
	members := party.MembersOf(RoleBatterer)
	if len(members) != 2 || members[0].UserID != "u1" || members[1].UserID != "u3" {
		t.Fatalf("unexpected member order after removal: %v", members)
	}
	if party.RemoveMember(RoleBatterer, "u2") {
		t.Fatal("removing an absent member should report false")
	}
}

func TestRolesHeldFollowsCatalogOrder(t *testing.T) {
	party, catalog := newTestParty(t)
	party.AddMember(RoleBaker, Member{UserID: "u1"})
	party.AddMember(RoleSpreader, Member{UserID: "u1"})

	held := party.RolesHeld(catalog, "u1")
	if len(held) != 2 || held[0] != RoleSpreader || held[1] != RoleBaker {
		t.Fatalf("expected [spreader baker], got %v", held)
	}
}

func TestParticipantCountDistinctUsers(t *testing.T) {
	party, _ := newTestParty(t)
	party.AddMember(RoleSpreader, Member{UserID: "u1"})
	party.AddMember(RoleBaker, Member{UserID: "u1"})
	party.AddMember(RoleLeafer, Member{UserID: "u2"})

	if got := party.ParticipantCount(); got != 2 {
		t.Fatalf("expected 2 distinct participants, got %d", got)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	party, _ := newTestParty(t)
	party.AddMember(RoleLeafer, Member{UserID: "u1"})

	snap := party.Snapshot()
	party.AddMember(RoleLeafer, Member{UserID: "u2"})

	if got := len(snap.MembersOf(RoleLeafer)); got != 1 {
		t.Fatalf("snapshot mutated by later writes: %d members", got)
	}
}

func TestSummarize(t *testing.T) {
	party, catalog := newTestParty(t)
	party.AddMember(RoleStarter, Member{UserID: "u1", DisplayName: "Ann"})
	party.AddMember(RoleBaker, Member{UserID: "u1", DisplayName: "Ann"})
	party.AddMember(RoleLeafer, Member{UserID: "u2", DisplayName: "Ben"})

	summary := party.Summarize(catalog)
	if summary.CakeCount != 2 {
		t.Fatalf("expected cake count 2, got %d", summary.CakeCount)
	}
	if summary.TotalParticipants != 2 {
		t.Fatalf("expected 2 participants, got %d", summary.TotalParticipants)
	}
	if len(summary.Roles) != catalog.Len() {
		t.Fatalf("expected every role summarized, got %d", len(summary.Roles))
	}
	if summary.Roles[0].RoleID != RoleStarter {
		t.Fatalf("expected roles in catalog order, first was %s", summary.Roles[0].RoleID)
	}
}
