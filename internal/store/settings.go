package store

import (
	"context"

	"bills/internal/core"
)

// Settings returns the defaults overlaid with whatever fields were stored.
func (s *Store) Settings(ctx context.Context) (core.AppSettings, error) {
	settings := core.DefaultSettings()
	if _, _, err := s.load(ctx, KeySettings, &settings); err != nil {
		return core.AppSettings{}, err
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings core.AppSettings) error {
	return s.overwrite(ctx, KeySettings, settings)
}

// UpdateSettings applies fn to the current settings and persists the result.
func (s *Store) UpdateSettings(ctx context.Context, fn func(*core.AppSettings) error) error {
	var settings core.AppSettings
	return s.mutate(ctx, KeySettings, func() (uint64, error) {
		settings = core.DefaultSettings()
		rev, _, err := s.load(ctx, KeySettings, &settings)
		return rev, err
	}, func() (any, error) {
		if err := fn(&settings); err != nil {
			return nil, err
		}
		return settings, nil
	})
}
