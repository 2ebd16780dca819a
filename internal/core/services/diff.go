package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

var _ driving.DiffService = (*DiffService)(nil)

// DiffService compares the structured fields of two versions of the same
// document. Results are cached per version pair; recomputation only happens
// on a cache miss.
type DiffService struct {
	store        driven.Stores
	intelligence driven.Intelligence
}

func NewDiffService(store driven.Stores, intelligence driven.Intelligence) *DiffService {
	return &DiffService{store: store, intelligence: intelligence}
}

// Diff returns the semantic diff between two versions, computing and caching
// it on first request. Both versions must belong to the same file.
func (s *DiffService) Diff(ctx context.Context, fromVersionID, toVersionID string) (*domain.SemanticDiff, error) {
	cached, err := s.store.Diffs().Get(ctx, fromVersionID, toVersionID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("looking up cached diff: %w", err)
	}

	from, err := s.store.Documents().Get(ctx, fromVersionID)
	if err != nil {
		return nil, fmt.Errorf("loading version %s: %w", fromVersionID, err)
	}
	to, err := s.store.Documents().Get(ctx, toVersionID)
	if err != nil {
		return nil, fmt.Errorf("loading version %s: %w", toVersionID, err)
	}
	if from.FileID != to.FileID {
		return nil, fmt.Errorf("%w: versions belong to different files", domain.ErrInvalidInput)
	}

	changes := compareStructuredFields(from.StructuredFields, to.StructuredFields)
	summary, err := s.intelligence.SummariseDiff(ctx, changes)
	if err != nil {
		return nil, fmt.Errorf("summarising diff: %w", err)
	}

	diff := &domain.SemanticDiff{
		FromVersionID: fromVersionID,
		ToVersionID:   toVersionID,
		FieldChanges:  changes,
		Summary:       summary,
	}
	if err := s.store.Diffs().Insert(ctx, diff); err != nil {
		// A concurrent request computed the same pair first; serve its
		// cached result so both callers see one stored diff.
		if errors.Is(err, domain.ErrAlreadyExists) {
			logger.Debug("diff %s->%s already cached, reloading", fromVersionID, toVersionID)
			return s.store.Diffs().Get(ctx, fromVersionID, toVersionID)
		}
		return nil, fmt.Errorf("caching diff: %w", err)
	}
	return diff, nil
}

// compareStructuredFields diffs two field maps over the union of their keys,
// in sorted key order so output is deterministic.
func compareStructuredFields(before, after map[string]any) []domain.FieldChange {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}
	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	//nolint:prealloc // unchanged fields produce no change entry
	var changes []domain.FieldChange
	for _, key := range ordered {
		oldValue, hadOld := before[key]
		newValue, hasNew := after[key]
		switch {
		case !hadOld && hasNew:
			changes = append(changes, domain.FieldChange{
				Field:    key,
				NewValue: newValue,
				Change:   domain.ChangeAdded,
			})
		case hadOld && !hasNew:
			changes = append(changes, domain.FieldChange{
				Field:    key,
				OldValue: oldValue,
				Change:   domain.ChangeRemoved,
			})
		case !reflect.DeepEqual(oldValue, newValue):
			changes = append(changes, domain.FieldChange{
				Field:    key,
				OldValue: oldValue,
				NewValue: newValue,
				Change:   domain.ChangeModified,
			})
		}
	}
	return changes
}
