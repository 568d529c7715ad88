// Package render turns party state into displayable content. Every function
// is a pure view of the data model: no I/O, no platform types.
package render

import (
	"fmt"
	"strings"

	"github.com/CryptaEcto/Discordcakebot/internal/party/domain"
)

// Button describes one interactive action on the party display.
type Button struct {
	ActionID string
	Label    string
	Danger   bool
}

// View is one displayable message: a title, body text, and action buttons.
type View struct {
	Title   string
	Body    string
	Buttons []Button
}

// LeaveActionID identifies the leave-role button.
const LeaveActionID = "leave_role"

// JoinActionPrefix prefixes every role's join button action id.
const JoinActionPrefix = "join_"

// JoinActionID returns the join button action id for a role.
func JoinActionID(roleID domain.RoleID) string {
	return JoinActionPrefix + string(roleID)
}

// RoleIDFromAction extracts the role id from a join action id.
func RoleIDFromAction(actionID string) (domain.RoleID, bool) {
	if !strings.HasPrefix(actionID, JoinActionPrefix) {
		return "", false
	}
	return domain.RoleID(strings.TrimPrefix(actionID, JoinActionPrefix)), true
}

var ingredientLabels = map[domain.IngredientID]string{
	domain.IngredientStarredBlueberry: "★ Blueberry",
	domain.IngredientStarredFruit:     "★ Apple/★ Blueberry",
	domain.IngredientButter:           "Butter",
	domain.IngredientEgg:              "Egg",
	domain.IngredientFlour:            "Flour",
	domain.IngredientMilk:             "Milk",
	domain.IngredientSugar:            "Sugar",
	domain.IngredientSweetleaf:        "Sweetleaf",
}

// IngredientLabel returns the display label for an ingredient.
func IngredientLabel(id domain.IngredientID) string {
	if label, ok := ingredientLabels[id]; ok {
		return label
	}
	return string(id)
}

// PartyView renders the shared signup message for a live party.
func PartyView(party domain.Party, catalog domain.Catalog) View {
	var b strings.Builder

	fmt.Fprintf(&b, "🎂 Making %d %s! 🎂\n\n", party.CakeCount, plural(party.CakeCount, "cake", "cakes"))

	allFilled := party.AllRolesFilled(catalog)
	for _, role := range catalog.Roles() {
		members := party.MembersOf(role.ID)
		limit := role.Capacity.Effective(allFilled)
		fmt.Fprintf(&b, "**%ss (%d/%d)**\n", role.DisplayName, len(members), limit)

		if len(members) == 0 {
			b.WriteString("_None yet_\n")
		} else {
			for _, m := range members {
				fmt.Fprintf(&b, "• %s\n", m.DisplayName)
			}
		}

		b.WriteString(ingredientLine(role, len(members), party.CakeCount))
		if role.Tip != "" {
			fmt.Fprintf(&b, "Tip: %s\n", role.Tip)
		}
		b.WriteString("\n")
	}

	if allFilled {
		b.WriteString("🎂 **Time to Bake!** All roles have at least one member!\n")
		b.WriteString("🔹 Check Ingredients\n🔹 Lock Ingredients\n🔹 Have Fun!\n\n")
	}

	b.WriteString("🎉 Let the party begin! 🎉")

	return View{
		Title:   "🥳🎉 Cake Party Sign-Up 🎉🥳",
		Body:    b.String(),
		Buttons: buttons(catalog),
	}
}

func ingredientLine(role domain.RoleDefinition, memberCount, cakeCount int) string {
	if len(role.BaseIngredients) == 0 {
		return "No ingredients needed\n"
	}

	req := domain.Resolve(role, memberCount, cakeCount)

	var line strings.Builder
	line.WriteString("Needs: ")
	line.WriteString(quantities(req.Total))
	line.WriteString("\n")
	if req.PerMember != nil {
		line.WriteString("Per member: ")
		line.WriteString(quantities(req.PerMember))
		line.WriteString("\n")
	}
	return line.String()
}

func quantities(items []domain.IngredientQuantity) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", IngredientLabel(item.ID), item.Quantity))
	}
	return strings.Join(parts, ", ")
}

func buttons(catalog domain.Catalog) []Button {
	var out []Button
	for _, role := range catalog.Roles() {
		out = append(out, Button{
			ActionID: JoinActionID(role.ID),
			Label:    "Join " + role.DisplayName,
		})
	}
	out = append(out, Button{ActionID: LeaveActionID, Label: "Leave Role", Danger: true})
	return out
}

// Summary renders the terminal message produced when a party ends.
func Summary(summary domain.Summary) View {
	var b strings.Builder

	fmt.Fprintf(&b, "The cake party has ended with %d total participant(s)! Together you made %d %s!\n\n",
		summary.TotalParticipants, summary.CakeCount, plural(summary.CakeCount, "cake", "cakes"))

	b.WriteString("**Role Breakdown**\n")
	joined := false
	for _, role := range summary.Roles {
		if len(role.Members) == 0 {
			continue
		}
		joined = true
		names := make([]string, 0, len(role.Members))
		for _, m := range role.Members {
			names = append(names, m.DisplayName)
		}
		fmt.Fprintf(&b, "%ss: %s\n", role.DisplayName, strings.Join(names, ", "))
	}
	if !joined {
		b.WriteString("No participants joined this party 😢\n")
	}

	b.WriteString("\nThanks for participating! Use !startcakeparty <number> to begin another party!")

	return View{
		Title: "🎂 Cake Party Completed! 🎂",
		Body:  b.String(),
	}
}

// HelpText returns the usage message for the help command.
func HelpText() string {
	return strings.Join([]string{
		"🥳🎉🎈  **Cake Party Help**  🎈🎉🥳",
		"",
		"**Commands:**",
		"• `!startcakeparty <number>` - (Mod only) Start a new cake party for the specified number of cakes",
		"• `!endcake` - (Mod only) End the current cake party and show a final summary",
		"• `!readysetbake` - (Mod only) Announce the bake once every role has a member",
		"• `!cakehelp` - Show this help message (anyone can use)",
		"",
		"**How to participate:**",
		"• Click a role button to join that role",
		"• Each role needs specific ingredients (listed when the party starts)",
		"• The number of ingredients depends on how many cakes are being made",
		"• Click **Leave Role** to remove yourself from a role",
		"",
		"🧁 Let's get baking! 🧁",
	}, "\n")
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
