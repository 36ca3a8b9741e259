package persistence

import (
	"bytes"
	"errors"
	"sort"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds a row lock to the query. Dialects without row locks
// (sqlite) drop the clause and rely on their database-level write lock.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// translateNotFound maps gorm's missing-record error to the domain one
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// sortedUniqueIDs returns ids deduplicated and in ascending byte order,
// the order row locks are taken in.
func sortedUniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// lineIDs collects the IDs of owned child rows
func lineIDs[T any](rows []T, id func(*T) uuid.UUID) []uuid.UUID {
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = id(&rows[i])
	}
	return ids
}

// syncChildren deletes child rows of parent that are no longer present and
// upserts the remaining ones.
func syncChildren[T any](tx *gorm.DB, parentColumn string, parentID uuid.UUID, rows []T, id func(*T) uuid.UUID) error {
	var model T
	query := tx.Where(parentColumn+" = ?", parentID)
	if ids := lineIDs(rows, id); len(ids) > 0 {
		query = query.Where("id NOT IN ?", ids)
	}
	if err := query.Delete(&model).Error; err != nil {
		return err
	}
	for i := range rows {
		if err := tx.Save(&rows[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
