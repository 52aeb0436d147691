package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope identifies one sibling set: the lists of a page or the items of a list.
type Scope struct {
	ParentID     uuid.UUID
	table        string
	parentTable  string
	parentColumn string
	entity       string
	parent       string
}

func ListsOf(pageID uuid.UUID) Scope {
	return Scope{
		ParentID:     pageID,
		table:        "lists",
		parentTable:  "pages",
		parentColumn: "page_id",
		entity:       "list",
		parent:       "page",
	}
}

func ItemsOf(listID uuid.UUID) Scope {
	return Scope{
		ParentID:     listID,
		table:        "list_items",
		parentTable:  "lists",
		parentColumn: "list_id",
		entity:       "item",
		parent:       "list",
	}
}

type PositionUpdate struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
}

type OrderingService struct {
	DB *gorm.DB
}

func NewOrderingService(db *gorm.DB) *OrderingService {
	return &OrderingService{DB: db}
}

// SortByPosition applies the display order used by every listing.
func SortByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC").Order("id ASC")
}

// Transaction runs fn with the scope's parent row locked, so concurrent
// writers to the same sibling set are serialised.
func (s *OrderingService) Transaction(ctx context.Context, scope Scope, fn func(tx *gorm.DB) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockParent(tx, scope); err != nil {
			return err
		}
		return fn(tx)
	})
}

// Place picks a position for a new or moved entity and hands it to apply
// inside the locked transaction. Without a requested position the entity goes
// to the end; with one, siblings at or after it shift up to make room.
func (s *OrderingService) Place(ctx context.Context, scope Scope, requested *int, exclude uuid.UUID, apply func(tx *gorm.DB, position int) error) error {
	if requested != nil && *requested < 0 {
		return invalid("position", "Position must not be negative")
	}

	return s.Transaction(ctx, scope, func(tx *gorm.DB) error {
		var position int
		if requested == nil {
			next, err := NextPosition(tx, scope)
			if err != nil {
				return err
			}
			position = next
		} else {
			position = *requested
			if err := MakeRoom(tx, scope, position, exclude); err != nil {
				return err
			}
		}
		return apply(tx, position)
	})
}

// Reorder applies a batch of position changes atomically. Every id must
// belong to the scope and no requested position may collide with a sibling
// left out of the batch; otherwise nothing is written.
func (s *OrderingService) Reorder(ctx context.Context, scope Scope, updates []PositionUpdate) error {
	if err := validateBatch(updates); err != nil {
		return err
	}

	return s.Transaction(ctx, scope, func(tx *gorm.DB) error {
		var siblings []struct {
			ID       uuid.UUID
			Position int
		}
		if err := tx.Table(scope.table).
			Select("id", "position").
			Where(scope.parentColumn+" = ?", scope.ParentID).
			Scan(&siblings).Error; err != nil {
			return err
		}

		inBatch := make(map[uuid.UUID]bool, len(updates))
		for _, u := range updates {
			inBatch[u.ID] = true
		}

		known := make(map[uuid.UUID]bool, len(siblings))
		taken := make(map[int]bool, len(siblings))
		for _, sibling := range siblings {
			known[sibling.ID] = true
			if !inBatch[sibling.ID] {
				taken[sibling.Position] = true
			}
		}

		for _, u := range updates {
			if !known[u.ID] {
				return notFound(fmt.Sprintf("%s %s not found in this %s", scope.entity, u.ID, scope.parent))
			}
		}
		for i, u := range updates {
			if taken[u.Position] {
				return invalid(fmt.Sprintf("positions[%d].position", i), fmt.Sprintf("Position is already used by another %s", scope.entity))
			}
		}

		now := time.Now().UTC()
		for _, u := range updates {
			if err := tx.Table(scope.table).
				Where("id = ?", u.ID).
				UpdateColumns(map[string]interface{}{"position": u.Position, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// NextPosition is one past the highest position in the scope, or 0 when empty.
func NextPosition(tx *gorm.DB, scope Scope) (int, error) {
	var highest int
	err := tx.Table(scope.table).
		Select("COALESCE(MAX(position), -1)").
		Where(scope.parentColumn+" = ?", scope.ParentID).
		Scan(&highest).Error
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

// MakeRoom frees position for a newcomer by shifting the sibling holding it,
// and everything after it, up by one. It is a no-op when position is free.
func MakeRoom(tx *gorm.DB, scope Scope, position int, exclude uuid.UUID) error {
	siblings := func() *gorm.DB {
		q := tx.Table(scope.table).Where(scope.parentColumn+" = ?", scope.ParentID)
		if exclude != uuid.Nil {
			q = q.Where("id <> ?", exclude)
		}
		return q
	}

	var occupied int64
	if err := siblings().Where("position = ?", position).Count(&occupied).Error; err != nil {
		return err
	}
	if occupied == 0 {
		return nil
	}

	return siblings().
		Where("position >= ?", position).
		UpdateColumn("position", gorm.Expr("position + 1")).Error
}

func lockParent(tx *gorm.DB, scope Scope) error {
	var row struct{ ID uuid.UUID }
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Table(scope.parentTable).
		Select("id").
		Where("id = ?", scope.ParentID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(scope.parent + " not found")
	}
	return err
}

func validateBatch(updates []PositionUpdate) error {
	v := &ValidationError{}
	if len(updates) == 0 {
		v.Add("positions", "At least one position must be provided")
		return v
	}

	ids := make(map[uuid.UUID]bool, len(updates))
	positions := make(map[int]bool, len(updates))
	for i, u := range updates {
		switch {
		case u.ID == uuid.Nil:
			v.Add(fmt.Sprintf("positions[%d].id", i), "Id is required")
		case ids[u.ID]:
			v.Add(fmt.Sprintf("positions[%d].id", i), "Duplicate id")
		}
		ids[u.ID] = true

		switch {
		case u.Position < 0:
			v.Add(fmt.Sprintf("positions[%d].position", i), "Position must not be negative")
		case positions[u.Position]:
			v.Add(fmt.Sprintf("positions[%d].position", i), "Duplicate position")
		}
		positions[u.Position] = true
	}
	return v.Err()
}
