package driven

import "context"

// SelectionOracle judges which chunks are relevant to a query.
//
// The prompt already enumerates every candidate chunk. Implementations
// return the chosen IDs in preference order. A response that cannot be
// parsed yields no IDs and no error; only transport or provider failures
// are errors.
type SelectionOracle interface {
	SelectIDs(ctx context.Context, prompt string) ([]string, error)
}
