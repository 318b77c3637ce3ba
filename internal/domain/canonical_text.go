package domain

import "strings"

// CanonicalText builds the stable text representation of a draft that
// embeddings are computed from. Field order is fixed: changing it
// would silently invalidate every stored vector.
func CanonicalText(d *RecipeDraft) string {
	var b strings.Builder

	b.WriteString(d.Name)
	if d.Description != nil && *d.Description != "" {
		b.WriteString("\n")
		b.WriteString(*d.Description)
	}
	if d.Cuisine != nil && *d.Cuisine != "" {
		b.WriteString("\nCuisine: ")
		b.WriteString(*d.Cuisine)
	}
	if len(d.Tags) > 0 {
		b.WriteString("\nTags: ")
		b.WriteString(strings.Join(d.Tags, ", "))
	}
	if len(d.Ingredients) > 0 {
		b.WriteString("\nIngredients:\n")
		b.WriteString(strings.Join(d.Ingredients, "\n"))
	}
	if len(d.Instructions) > 0 {
		b.WriteString("\nInstructions:\n")
		b.WriteString(strings.Join(d.Instructions, "\n"))
	}

	return b.String()
}
