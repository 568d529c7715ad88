package domain

import (
	"errors"
	"fmt"
)

// RoleID identifies one catalog role.
type RoleID string

// Catalog role identifiers.
const (
	RoleStarter      RoleID = "starter"
	RoleBatterer     RoleID = "batterer"
	RoleFroster      RoleID = "froster"
	RoleFruitFroster RoleID = "fruitfroster"
	RoleLeafer       RoleID = "leafer"
	RoleSpreader     RoleID = "spreader"
	RoleBaker        RoleID = "baker"
)

// IngredientID identifies one abstract ingredient resource.
type IngredientID string

// Ingredient identifiers used by the default catalog.
const (
	IngredientStarredBlueberry IngredientID = "starred_blueberry"
	IngredientStarredFruit     IngredientID = "starred_apple_or_blueberry"
	IngredientButter           IngredientID = "butter"
	IngredientEgg              IngredientID = "egg"
	IngredientFlour            IngredientID = "flour"
	IngredientMilk             IngredientID = "milk"
	IngredientSugar            IngredientID = "sugar"
	IngredientSweetleaf        IngredientID = "sweetleaf"
)

// ScalingMode governs how a role's ingredient need relates to member count.
type ScalingMode int

const (
	// ScalingPerCakeOnly means each member individually needs the full
	// per-cake amount; the total does not depend on member count.
	ScalingPerCakeOnly ScalingMode = iota
	// ScalingEvenSplitAcrossMembers divides the cake-driven total evenly
	// across current members, rounding up.
	ScalingEvenSplitAcrossMembers
)

// CapacityPolicy describes how many members a role admits. Base applies
// while the party is still forming; Expanded applies once every role has
// at least one member. Fixed-capacity roles carry the same value in both.
type CapacityPolicy struct {
	Base     int
	Expanded int
}

// FixedCapacity returns a capacity that never changes.
func FixedCapacity(n int) CapacityPolicy {
	return CapacityPolicy{Base: n, Expanded: n}
}

// ExclusiveCapacity returns a single-member capacity.
func ExclusiveCapacity() CapacityPolicy {
	return FixedCapacity(1)
}

// ThrottledCapacity returns a capacity held at one member until all roles
// are filled, then expanded.
func ThrottledCapacity(expanded int) CapacityPolicy {
	return CapacityPolicy{Base: 1, Expanded: expanded}
}

// Effective returns the capacity that applies right now.
func (c CapacityPolicy) Effective(allRolesFilled bool) int {
	if allRolesFilled {
		return c.Expanded
	}
	return c.Base
}

// BaseIngredient is one (ingredient, per-cake count) pair on a role.
type BaseIngredient struct {
	ID           IngredientID
	CountPerCake int
}

// RoleDefinition is one immutable catalog entry.
type RoleDefinition struct {
	ID              RoleID
	DisplayName     string
	BaseIngredients []BaseIngredient
	Capacity        CapacityPolicy
	Scaling         ScalingMode
	// DualRolePartner names the one other role a member may hold at the
	// same time as this one. Empty for all other roles.
	DualRolePartner RoleID
	// Tip is display-only guidance shown next to the role.
	Tip string
}

var (
	// ErrDuplicateRole indicates a catalog with a repeated role id.
	ErrDuplicateRole = errors.New("duplicate role id in catalog")
	// ErrPartnerNotMutual indicates a dual-role partner declaration that is
	// not reciprocated by the partner role.
	ErrPartnerNotMutual = errors.New("dual-role partner is not mutual")
)

// Catalog is the read-only set of roles a party is built from.
type Catalog struct {
	roles []RoleDefinition
	byID  map[RoleID]RoleDefinition
}

// NewCatalog validates and indexes the provided role definitions.
func NewCatalog(roles ...RoleDefinition) (Catalog, error) {
	byID := make(map[RoleID]RoleDefinition, len(roles))
	for _, role := range roles {
		if _, exists := byID[role.ID]; exists {
			return Catalog{}, fmt.Errorf("%w: %s", ErrDuplicateRole, role.ID)
		}
		if role.Capacity.Base <= 0 || role.Capacity.Expanded < role.Capacity.Base {
			return Catalog{}, fmt.Errorf("role %s has invalid capacity %+v", role.ID, role.Capacity)
		}
		for _, ing := range role.BaseIngredients {
			if ing.CountPerCake < 0 {
				return Catalog{}, fmt.Errorf("role %s ingredient %s has negative per-cake count", role.ID, ing.ID)
			}
		}
		byID[role.ID] = role
	}
	for _, role := range roles {
		if role.DualRolePartner == "" {
			continue
		}
		partner, ok := byID[role.DualRolePartner]
		if !ok || partner.DualRolePartner != role.ID {
			return Catalog{}, fmt.Errorf("%w: %s -> %s", ErrPartnerNotMutual, role.ID, role.DualRolePartner)
		}
	}
	return Catalog{roles: append([]RoleDefinition(nil), roles...), byID: byID}, nil
}

// Roles returns the catalog roles in display order.
func (c Catalog) Roles() []RoleDefinition {
	return append([]RoleDefinition(nil), c.roles...)
}

// Role looks up one role definition by id.
func (c Catalog) Role(id RoleID) (RoleDefinition, bool) {
	role, ok := c.byID[id]
	return role, ok
}

// Len returns the number of roles in the catalog.
func (c Catalog) Len() int {
	return len(c.roles)
}

// DefaultCatalog returns the standard cake-party role set.
func DefaultCatalog() Catalog {
	catalog, err := NewCatalog(
		RoleDefinition{
			ID:          RoleStarter,
			DisplayName: "Starter",
			BaseIngredients: []BaseIngredient{
				{ID: IngredientStarredBlueberry, CountPerCake: 1},
			},
			Capacity: ExclusiveCapacity(),
			Scaling:  ScalingPerCakeOnly,
			Tip:      "Also needs the Celebration Cake Recipe",
		},
		RoleDefinition{
			ID:          RoleBatterer,
			DisplayName: "Batterer",
			BaseIngredients: []BaseIngredient{
				{ID: IngredientButter, CountPerCake: 3},
				{ID: IngredientEgg, CountPerCake: 3},
				{ID: IngredientFlour, CountPerCake: 3},
			},
			Capacity: FixedCapacity(3),
			Scaling:  ScalingPerCakeOnly,
			Tip:      "Lock away your milk so you don't accidentally use it!",
		},
		RoleDefinition{
			ID:          RoleFroster,
			DisplayName: "Froster",
			BaseIngredients: []BaseIngredient{
				{ID: IngredientMilk, CountPerCake: 1},
				{ID: IngredientButter, CountPerCake: 1},
			},
			Capacity: ExclusiveCapacity(),
			Scaling:  ScalingPerCakeOnly,
			Tip:      "Lock away your flour so you don't accidentally use it!",
		},
		RoleDefinition{
			ID:          RoleFruitFroster,
			DisplayName: "Fruit Froster",
			BaseIngredients: []BaseIngredient{
				{ID: IngredientStarredFruit, CountPerCake: 3},
				{ID: IngredientSugar, CountPerCake: 3},
			},
			Capacity: FixedCapacity(3),
			Scaling:  ScalingEvenSplitAcrossMembers,
		},
		RoleDefinition{
			ID:          RoleLeafer,
			DisplayName: "Leafer",
			BaseIngredients: []BaseIngredient{
				{ID: IngredientSweetleaf, CountPerCake: 4},
			},
			Capacity: FixedCapacity(4),
			Scaling:  ScalingEvenSplitAcrossMembers,
		},
		RoleDefinition{
			ID:              RoleSpreader,
			DisplayName:     "Spreader",
			Capacity:        ThrottledCapacity(3),
			Scaling:         ScalingPerCakeOnly,
			DualRolePartner: RoleBaker,
			Tip:             "You can also join as a Baker at the same time!",
		},
		RoleDefinition{
			ID:              RoleBaker,
			DisplayName:     "Baker",
			Capacity:        ThrottledCapacity(3),
			Scaling:         ScalingPerCakeOnly,
			DualRolePartner: RoleSpreader,
			Tip:             "You can also join as a Spreader at the same time!",
		},
	)
	if err != nil {
		panic(fmt.Sprintf("default catalog is invalid: %v", err))
	}
	return catalog
}
