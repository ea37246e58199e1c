package words

import "context"

// Store provides read access to the vocabulary reference data.
// Seeding and curriculum management happen outside this service.
type Store interface {
	// GetByIDs returns the words for the given ids, in the order of ids.
	// Ids with no matching word are silently omitted from the result.
	GetByIDs(ctx context.Context, ids []string) ([]Word, error)
}
