package domain

import "testing"

func TestResolvePerCakeOnly(t *testing.T) {
	catalog := DefaultCatalog()
	batterer, _ := catalog.Role(RoleBatterer)

	req := Resolve(batterer, 2, 2)
	if len(req.Total) != 3 {
		t.Fatalf("expected 3 ingredient totals, got %d", len(req.Total))
	}
	for _, qty := range req.Total {
		if qty.Quantity != 6 {
			t.Fatalf("expected total 6 for %s at 2 cakes, got %d", qty.ID, qty.Quantity)
		}
	}
	// Per-cake roles do not split: every member brings the full total.
	for _, qty := range req.PerMember {
		if qty.Quantity != 6 {
			t.Fatalf("expected per-member 6 for %s, got %d", qty.ID, qty.Quantity)
		}
	}
}

func TestResolveEvenSplitRoundsUp(t *testing.T) {
	catalog := DefaultCatalog()
	leafer, _ := catalog.Role(RoleLeafer)

	req := Resolve(leafer, 3, 1)
	if req.Total[0].Quantity != 4 {
		t.Fatalf("expected total 4 sweetleaf, got %d", req.Total[0].Quantity)
	}
	if req.PerMember[0].Quantity != 2 {
		t.Fatalf("expected ceil(4/3)=2 per member, got %d", req.PerMember[0].Quantity)
	}
}

func TestResolveEvenSplitCoversTotal(t *testing.T) {
	catalog := DefaultCatalog()
	fruit, _ := catalog.Role(RoleFruitFroster)

	for members := 1; members <= 3; members++ {
		for cakes := 1; cakes <= 5; cakes++ {
			req := Resolve(fruit, members, cakes)
			for i, per := range req.PerMember {
				if per.Quantity*members < req.Total[i].Quantity {
					t.Fatalf("members=%d cakes=%d: per-member %d * %d < total %d for %s",
						members, cakes, per.Quantity, members, req.Total[i].Quantity, per.ID)
				}
			}
		}
	}
}

func TestResolveNoMembers(t *testing.T) {
	catalog := DefaultCatalog()
	froster, _ := catalog.Role(RoleFroster)

	req := Resolve(froster, 0, 3)
	if req.PerMember != nil {
		t.Fatal("expected no per-member breakdown for an empty role")
	}
	if req.Total[0].Quantity != 3 {
		t.Fatalf("expected total to scale with cakes, got %d", req.Total[0].Quantity)
	}
}

func TestResolveClampsCakeCount(t *testing.T) {
	catalog := DefaultCatalog()
	starter, _ := catalog.Role(RoleStarter)

	req := Resolve(starter, 1, 0)
	if req.Total[0].Quantity != 1 {
		t.Fatalf("expected cake count clamped to 1, got total %d", req.Total[0].Quantity)
	}
}

func TestResolveNoIngredients(t *testing.T) {
	catalog := DefaultCatalog()
	baker, _ := catalog.Role(RoleBaker)

	req := Resolve(baker, 2, 10)
	if len(req.Total) != 0 {
		t.Fatalf("expected baker to need no ingredients, got %v", req.Total)
	}
}
