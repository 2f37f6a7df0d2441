package recipe

import (
	"platebook/internal/platform/spoonacular"
)

// FromExtracted maps an extraction-service document to the persisted recipe
// shape, owned by userID. sourceURL is the URL the caller submitted, not the
// one the service may have resolved internally.
//
// Policy: a prep or cook time of zero minutes is stored as absent. The
// service reports 0 for recipes it has no timing data for, so zero and
// missing are not distinguishable at this boundary.
func FromExtracted(doc *spoonacular.Document, userID, sourceURL string) CreateInput {
	instructions := make([]Instruction, len(doc.AnalyzedInstructions))
	for idx, step := range doc.AnalyzedInstructions {
		instructions[idx] = Instruction{Step: step.Step}
	}

	ingredients := make([]Ingredient, len(doc.ExtendedIngredients))
	for idx, ing := range doc.ExtendedIngredients {
		ingredients[idx] = Ingredient{
			Name:       ing.Name,
			Quantity:   floatPtr(ing.Amount),
			Unit:       strPtr(ing.Unit),
			IsOptional: false,
		}
	}

	return CreateInput{
		UserID:           userID,
		Title:            doc.Title,
		Description:      nil,
		ImageURL:         strPtr(doc.Image),
		Servings:         intPtr(doc.Servings),
		PrepTimeMinutes:  minutesOrNil(doc.PreparationMinutes),
		CookTimeMinutes:  minutesOrNil(doc.CookingMinutes),
		TotalTimeMinutes: intPtr(doc.ReadyInMinutes),
		Instructions:     instructions,
		Ingredients:      ingredients,
		SourceURL:        strPtr(sourceURL),
		Notes:            nil,
		IsPublic:         false,
	}
}

// minutesOrNil applies the zero-is-absent policy for prep/cook minutes.
func minutesOrNil(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }
