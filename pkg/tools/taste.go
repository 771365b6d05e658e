package tools

import (
	"context"
	"strings"

	"github.com/Protocol-Lattice/agentcoffee/pkg/agent"
)

// CoffeeProfile is a coffee style and the taste notes it is known for.
type CoffeeProfile struct {
	Name  string
	Notes []string
}

// tasteVocabulary lists the recognised taste words. The multi-word entries
// can never match a single whitespace token and are kept for completeness.
var tasteVocabulary = map[string]struct{}{
	"strong": {}, "bold": {}, "intense": {}, "mild": {}, "creamy": {}, "smooth": {},
	"frothy": {}, "balanced": {}, "rich": {}, "diluted": {}, "chocolatey": {},
	"less acidic": {}, "full-bodied": {}, "robust": {}, "clean": {}, "bright": {},
	"aromatic": {}, "thick": {},
}

var coffeeCatalogue = []CoffeeProfile{
	{Name: "Espresso", Notes: []string{"strong", "bold", "intense"}},
	{Name: "Latte", Notes: []string{"mild", "creamy", "smooth"}},
	{Name: "Cappuccino", Notes: []string{"frothy", "balanced", "rich"}},
	{Name: "Americano", Notes: []string{"smooth", "diluted", "bold"}},
	{Name: "Cold Brew", Notes: []string{"smooth", "chocolatey", "less acidic"}},
	{Name: "French Press", Notes: []string{"rich", "full-bodied", "robust"}},
	{Name: "Pour Over", Notes: []string{"clean", "bright", "aromatic"}},
	{Name: "Turkish Coffee", Notes: []string{"strong", "thick", "intense"}},
}

// CoffeeCatalogue returns a copy of the known coffee profiles in catalogue order.
func CoffeeCatalogue() []CoffeeProfile {
	out := make([]CoffeeProfile, len(coffeeCatalogue))
	for i, p := range coffeeCatalogue {
		out[i] = CoffeeProfile{Name: p.Name, Notes: append([]string(nil), p.Notes...)}
	}
	return out
}

// MatchTaste returns the names of the coffees whose notes share at least one
// word with the description, in catalogue order. Words are split on
// whitespace only, so "creamy," does not count as "creamy".
func MatchTaste(description string) []string {
	wanted := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(description)) {
		if _, ok := tasteVocabulary[tok]; ok {
			wanted[tok] = struct{}{}
		}
	}

	matches := []string{}
	if len(wanted) == 0 {
		return matches
	}
	for _, p := range coffeeCatalogue {
		for _, note := range p.Notes {
			if _, ok := wanted[note]; ok {
				matches = append(matches, p.Name)
				break
			}
		}
	}
	return matches
}

// TasteTool exposes MatchTaste as the coffee_taste action.
type TasteTool struct{}

func NewTasteTool() *TasteTool { return &TasteTool{} }

func (t *TasteTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "coffee_taste",
		Description: "Returns a list of coffee types that match the taste preferences",
		Example:     "I like my coffee strong and creamy",
		InputSchema: inputSchema("Free-text description of taste preferences."),
	}
}

func (t *TasteTool) Invoke(_ context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	return agent.ToolResponse{Result: MatchTaste(req.Input)}, nil
}

func inputSchema(description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"input"},
	}
}
