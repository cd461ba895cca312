package synth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/san-kum/trplsim/internal/trpl"
)

// GenerateBatch generates every parameter set concurrently and returns the
// datasets in input order. The first failure cancels the rest.
func GenerateBatch(ctx context.Context, params []Params) ([]*trpl.Dataset, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*trpl.Dataset, len(params))
	errs := make([]error, len(params))

	var wg sync.WaitGroup
	for i := range params {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = Generate(ctx, params[idx])
			if errs[idx] != nil {
				cancel()
			}
		}(i)
	}

	wg.Wait()

	// Items cancelled because a sibling failed are not the cause.
	first := -1
	for i, err := range errs {
		if err == nil {
			continue
		}
		if first < 0 || errors.Is(errs[first], context.Canceled) && !errors.Is(err, context.Canceled) {
			first = i
		}
	}
	if first >= 0 {
		return nil, fmt.Errorf("batch item %d: %w", first, errs[first])
	}

	return results, nil
}
