package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"bills/internal/core"
	"bills/internal/storage"
)

// Bills returns every stored bill. On first use the sample bills are seeded
// and persisted; later reads never write.
func (s *Store) Bills(ctx context.Context) ([]core.Bill, error) {
	var bills []core.Bill
	_, found, err := s.load(ctx, KeyBills, &bills)
	if err != nil {
		return nil, err
	}
	if found {
		return nonNil(bills), nil
	}
	return s.seedBills(ctx)
}

func (s *Store) seedBills(ctx context.Context) ([]core.Bill, error) {
	seed := core.SampleBills()
	raw, err := marshal(KeyBills, seed)
	if err != nil {
		return nil, err
	}
	_, err = s.backend.Put(ctx, KeyBills, raw, storage.NoRevision)
	if errors.Is(err, storage.ErrConflict) {
		// Someone else seeded or wrote first; theirs wins.
		var bills []core.Bill
		if _, _, err := s.load(ctx, KeyBills, &bills); err != nil {
			return nil, err
		}
		return nonNil(bills), nil
	}
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", KeyBills, err)
	}
	return seed, nil
}

// Bill returns the bill with id or ErrNotFound.
func (s *Store) Bill(ctx context.Context, id string) (core.Bill, error) {
	bills, err := s.Bills(ctx)
	if err != nil {
		return core.Bill{}, err
	}
	i := slices.IndexFunc(bills, func(b core.Bill) bool { return b.ID == id })
	if i < 0 {
		return core.Bill{}, fmt.Errorf("bill %s: %w", id, ErrNotFound)
	}
	return bills[i], nil
}

// SaveBills replaces the whole collection.
func (s *Store) SaveBills(ctx context.Context, bills []core.Bill) error {
	return s.overwrite(ctx, KeyBills, nonNil(bills))
}

// AddBill appends a validated bill.
func (s *Store) AddBill(ctx context.Context, bill core.Bill) error {
	if err := bill.Validate(); err != nil {
		return &ValidationError{Entity: "bill", Err: err}
	}
	var bills []core.Bill
	return s.mutateBills(ctx, &bills, func() (any, error) {
		return append(bills, bill), nil
	})
}

// UpdateBill replaces the bill with the same id. An unknown id is a no-op and
// reports false.
func (s *Store) UpdateBill(ctx context.Context, bill core.Bill) (bool, error) {
	if err := bill.Validate(); err != nil {
		return false, &ValidationError{Entity: "bill", Err: err}
	}
	var bills []core.Bill
	var found bool
	err := s.mutateBills(ctx, &bills, func() (any, error) {
		i := slices.IndexFunc(bills, func(b core.Bill) bool { return b.ID == bill.ID })
		found = i >= 0
		if !found {
			return nil, nil
		}
		bills[i] = bill
		return bills, nil
	})
	return found, err
}

// ModifyBill applies fn to the stored bill with id inside one write cycle and
// returns the result. fn may run more than once when writers conflict.
func (s *Store) ModifyBill(ctx context.Context, id string, fn func(*core.Bill) error) (core.Bill, error) {
	var bills []core.Bill
	var updated core.Bill
	err := s.mutateBills(ctx, &bills, func() (any, error) {
		i := slices.IndexFunc(bills, func(b core.Bill) bool { return b.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("bill %s: %w", id, ErrNotFound)
		}
		b := bills[i]
		b.Files = slices.Clone(b.Files)
		if err := fn(&b); err != nil {
			return nil, err
		}
		if err := b.Validate(); err != nil {
			return nil, &ValidationError{Entity: "bill", Err: err}
		}
		next := slices.Clone(bills)
		next[i] = b
		updated = b
		return next, nil
	})
	if err != nil {
		return core.Bill{}, err
	}
	return updated, nil
}

// DeleteBill removes the bill with id. An unknown id is a no-op.
func (s *Store) DeleteBill(ctx context.Context, id string) error {
	var bills []core.Bill
	return s.mutateBills(ctx, &bills, func() (any, error) {
		kept := slices.DeleteFunc(slices.Clone(bills), func(b core.Bill) bool { return b.ID == id })
		if len(kept) == len(bills) {
			return nil, nil
		}
		return kept, nil
	})
}

// mutateBills reads the current bills into dst (seeding if absent) before apply runs.
func (s *Store) mutateBills(ctx context.Context, dst *[]core.Bill, apply func() (any, error)) error {
	return s.mutate(ctx, KeyBills, func() (uint64, error) {
		*dst = nil
		rev, found, err := s.load(ctx, KeyBills, dst)
		if err != nil {
			return 0, err
		}
		if !found {
			*dst = core.SampleBills()
		}
		return rev, nil
	}, apply)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
