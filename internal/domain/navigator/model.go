package navigator

import "github.com/rpggio/datapad/internal/domain/character"

// Direction is the step applied while scanning for a present record.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Result is the outcome of a navigation.
type Result struct {
	// ID is the resolved identifier; the cursor should move here.
	ID int
	// Character is the record at ID. It is nil only for a fallback jump in
	// legacy mode.
	Character *character.Character
	// Fallback is set when a jump target was absent and ID was found by
	// scanning forward from it.
	Fallback bool
	// RequestedID is the in-range identifier a jump asked for.
	RequestedID int
	// Fetches counts upstream fetches made to resolve ID.
	Fetches int
}
