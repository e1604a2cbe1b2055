package navigator

// DefaultMaxID is the upper bound of the dataset's identifier space.
const DefaultMaxID = 88

// Options configures the navigator.
type Options struct {
	// MaxID is the largest identifier. Values below 1 use DefaultMaxID.
	MaxID int
	// LegacyJumpResult pairs a fallback jump's resolved ID with a nil record
	// instead of the record found at that ID.
	LegacyJumpResult bool
}
