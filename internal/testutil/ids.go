package testutil

// DefaultMatchID is returned by a FixedIDGenerator built with no id.
const DefaultMatchID = "test-match-default"

// FixedIDGenerator returns the same match id every time.
//
// It satisfies session.IDGenerator, and stored matches created under it
// have stable ids for golden comparison.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator returning id, or DefaultMatchID
// when id is empty.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = DefaultMatchID
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
