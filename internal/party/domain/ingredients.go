package domain

// IngredientQuantity is one resolved (ingredient, quantity) pair.
type IngredientQuantity struct {
	ID       IngredientID
	Quantity int
}

// Requirements is the resolved ingredient need for one role at the current
// member and cake counts. PerMember is nil when the role has no members.
type Requirements struct {
	Total     []IngredientQuantity
	PerMember []IngredientQuantity
}

// Resolve computes the ingredient requirements for a role. The role's
// aggregate requirement is cake-driven: countPerCake * cakeCount per base
// ingredient. How that total maps to individual members depends on the
// role's scaling mode. Pure and deterministic; safe to call on every
// re-render.
func Resolve(role RoleDefinition, memberCount, cakeCount int) Requirements {
	if cakeCount < 1 {
		cakeCount = 1
	}

	total := make([]IngredientQuantity, 0, len(role.BaseIngredients))
	for _, base := range role.BaseIngredients {
		total = append(total, IngredientQuantity{
			ID:       base.ID,
			Quantity: base.CountPerCake * cakeCount,
		})
	}

	req := Requirements{Total: total}
	if memberCount <= 0 {
		return req
	}

	perMember := make([]IngredientQuantity, 0, len(total))
	for _, t := range total {
		qty := t.Quantity
		if role.Scaling == ScalingEvenSplitAcrossMembers {
			qty = ceilDiv(t.Quantity, memberCount)
		}
		perMember = append(perMember, IngredientQuantity{ID: t.ID, Quantity: qty})
	}
	req.PerMember = perMember
	return req
}

func ceilDiv(total, parts int) int {
	return (total + parts - 1) / parts
}
