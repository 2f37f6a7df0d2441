package recipe

import (
	"encoding/json"
	"time"
)

// Ingredient is one entry in a recipe's ingredient list.
type Ingredient struct {
	Name       string   `json:"name"`
	Quantity   *float64 `json:"quantity"`
	Unit       *string  `json:"unit"`
	IsOptional bool     `json:"is_optional"`
}

// Instruction is a single step. On the wire a step is either a bare string
// or an object with the step text and an optional timer; imported recipes
// only ever carry bare text.
type Instruction struct {
	Step         string `json:"step"`
	TimerMinutes *int   `json:"timer_minutes,omitempty"`
}

// MarshalJSON emits a bare string when no timer is attached.
func (i Instruction) MarshalJSON() ([]byte, error) {
	if i.TimerMinutes == nil {
		return json.Marshal(i.Step)
	}
	type alias Instruction
	return json.Marshal(alias(i))
}

// UnmarshalJSON accepts both the bare-string and the object form.
func (i *Instruction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.Step = s
		i.TimerMinutes = nil
		return nil
	}

	type alias Instruction
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*i = Instruction(a)
	return nil
}

// Recipe is a persisted recipe row. Nullable columns map to pointer fields.
type Recipe struct {
	ID               string        `json:"id" db:"id"`
	UserID           string        `json:"user_id" db:"user_id"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
	Title            string        `json:"title" db:"title"`
	Description      *string       `json:"description" db:"description"`
	ImageURL         *string       `json:"image_url" db:"image_url"`
	Servings         *int          `json:"servings" db:"servings"`
	PrepTimeMinutes  *int          `json:"prep_time_minutes" db:"prep_time_minutes"`
	CookTimeMinutes  *int          `json:"cook_time_minutes" db:"cook_time_minutes"`
	TotalTimeMinutes *int          `json:"total_time_minutes" db:"total_time_minutes"`
	Instructions     []Instruction `json:"instructions"`
	Ingredients      []Ingredient  `json:"ingredients"`
	SourceURL        *string       `json:"source_url" db:"source_url"`
	Notes            *string       `json:"notes" db:"notes"`
	IsPublic         bool          `json:"is_public" db:"is_public"`
}

// CreateInput holds the creation-time fields of a recipe; id and timestamps
// are generated by the store.
type CreateInput struct {
	UserID           string
	Title            string
	Description      *string
	ImageURL         *string
	Servings         *int
	PrepTimeMinutes  *int
	CookTimeMinutes  *int
	TotalTimeMinutes *int
	Instructions     []Instruction
	Ingredients      []Ingredient
	SourceURL        *string
	Notes            *string
	IsPublic         bool
}
