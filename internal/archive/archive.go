// Package archive moves long-finished cards out of the done column into
// monthly cold-storage buckets.
package archive

import (
	"time"

	"github.com/kingrea/kanban/internal/store"
)

// BucketLayout names a bucket after the month of the card's last update.
const BucketLayout = "2006-01"

// Bucket returns the cold-storage bucket for a card last updated at t.
func Bucket(t time.Time) string {
	return t.UTC().Format(BucketLayout)
}

// Sweep relocates cards in column whose last update is more than days old.
// Cards are moved untouched; cards with no usable timestamp stay put. A
// non-positive days disables the sweep. Running it twice is a no-op.
func Sweep(s *store.Store, column string, days int, now time.Time) ([]store.Entry, error) {
	if days <= 0 || !s.HasColumn(column) {
		return nil, nil
	}
	entries, err := s.List(column)
	if err != nil {
		return nil, err
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	var moved []store.Entry
	for _, entry := range entries {
		updated := entry.Card.Updated
		if updated.IsZero() || !updated.Before(cutoff) {
			continue
		}
		archived, err := s.ArchiveTo(entry, Bucket(updated))
		if err != nil {
			return moved, err
		}
		moved = append(moved, archived)
	}
	return moved, nil
}
