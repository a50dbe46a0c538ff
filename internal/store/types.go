package store

import (
	"context"
	"fmt"
	"slices"

	"bills/internal/core"
)

// BillTypes returns the stored types, or the defaults when none were ever
// saved. Defaults are not persisted by a read.
func (s *Store) BillTypes(ctx context.Context) ([]core.BillType, error) {
	var types []core.BillType
	_, found, err := s.load(ctx, KeyBillTypes, &types)
	if err != nil {
		return nil, err
	}
	if !found {
		return core.DefaultBillTypes(), nil
	}
	return nonNil(types), nil
}

// BillType returns the type with id or ErrNotFound.
func (s *Store) BillType(ctx context.Context, id string) (core.BillType, error) {
	types, err := s.BillTypes(ctx)
	if err != nil {
		return core.BillType{}, err
	}
	i := slices.IndexFunc(types, func(t core.BillType) bool { return t.ID == id })
	if i < 0 {
		return core.BillType{}, fmt.Errorf("bill type %s: %w", id, ErrNotFound)
	}
	return types[i], nil
}

func (s *Store) SaveBillTypes(ctx context.Context, types []core.BillType) error {
	return s.overwrite(ctx, KeyBillTypes, nonNil(types))
}

func (s *Store) AddBillType(ctx context.Context, t core.BillType) error {
	if err := t.Validate(); err != nil {
		return &ValidationError{Entity: "bill type", Err: err}
	}
	var types []core.BillType
	return s.mutateTypes(ctx, &types, func() (any, error) {
		return append(types, t), nil
	})
}

// UpdateBillType replaces the type with the same id. An unknown id is a no-op
// and reports false.
func (s *Store) UpdateBillType(ctx context.Context, t core.BillType) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, &ValidationError{Entity: "bill type", Err: err}
	}
	var types []core.BillType
	var found bool
	err := s.mutateTypes(ctx, &types, func() (any, error) {
		i := slices.IndexFunc(types, func(x core.BillType) bool { return x.ID == t.ID })
		found = i >= 0
		if !found {
			return nil, nil
		}
		types[i] = t
		return types, nil
	})
	return found, err
}

// DeleteBillType removes a type. Bills that reference it are left untouched
// and simply stop appearing in grouped views.
func (s *Store) DeleteBillType(ctx context.Context, id string) error {
	var types []core.BillType
	return s.mutateTypes(ctx, &types, func() (any, error) {
		kept := slices.DeleteFunc(slices.Clone(types), func(t core.BillType) bool { return t.ID == id })
		if len(kept) == len(types) {
			return nil, nil
		}
		return kept, nil
	})
}

func (s *Store) mutateTypes(ctx context.Context, dst *[]core.BillType, apply func() (any, error)) error {
	return s.mutate(ctx, KeyBillTypes, func() (uint64, error) {
		*dst = nil
		rev, found, err := s.load(ctx, KeyBillTypes, dst)
		if err != nil {
			return 0, err
		}
		if !found {
			*dst = core.DefaultBillTypes()
		}
		return rev, nil
	}, apply)
}
