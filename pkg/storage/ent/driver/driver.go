// Package entdriver is the SQL storage driver shared by the SQLite and
// PostgreSQL backends. The schema is migrated with ent's migration engine and
// statements are built with ent's dialect aware SQL builder, so the same code
// serves both databases.
package entdriver

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/storage"
	"github.com/papercomputeco/screens/pkg/storage/ent/migrate"
	"github.com/papercomputeco/screens/pkg/storage/ent/screen"
)

// EntDriver provides storage operations over an ent SQL driver.
// It is database-agnostic and can be embedded by specific drivers.
type EntDriver struct {
	drv *entsql.Driver
}

// New wraps drv and migrates the screens schema.
func New(ctx context.Context, drv *entsql.Driver) (*EntDriver, error) {
	if err := migrate.Create(ctx, drv); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &EntDriver{drv: drv}, nil
}

func (ed *EntDriver) builder() *entsql.DialectBuilder {
	return entsql.Dialect(ed.drv.Dialect())
}

// Put inserts the screen or replaces the row with the same ID.
func (ed *EntDriver) Put(ctx context.Context, s *generate.Screen) error {
	if s == nil {
		return storage.ErrNilScreen
	}

	insert := ed.builder().Insert(screen.Table).
		Columns(screen.Columns...).
		Values(
			s.ID,
			s.GenerationID,
			s.Index,
			s.Name,
			s.Description,
			s.Code,
			s.Truncated,
			s.CreatedAt.UnixNano(),
		).
		OnConflict(
			entsql.ConflictColumns(screen.FieldID),
			entsql.ResolveWithNewValues(),
		)

	query, args := insert.Query()
	if err := ed.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to store screen: %w", err)
	}
	return nil
}

// Get retrieves a screen by its ID.
func (ed *EntDriver) Get(ctx context.Context, id string) (*generate.Screen, error) {
	sel := ed.builder().Select(screen.Columns...).
		From(entsql.Table(screen.Table)).
		Where(entsql.EQ(screen.FieldID, id))

	screens, err := ed.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(screens) == 0 {
		return nil, storage.NotFoundError{ID: id}
	}
	return screens[0], nil
}

// ListGeneration returns the screens of a generation ordered by index and
// creation time.
func (ed *EntDriver) ListGeneration(ctx context.Context, generationID string) ([]*generate.Screen, error) {
	sel := ed.builder().Select(screen.Columns...).
		From(entsql.Table(screen.Table)).
		Where(entsql.EQ(screen.FieldGenerationID, generationID)).
		OrderBy(screen.FieldIndex, screen.FieldCreatedAt, screen.FieldID)

	return ed.query(ctx, sel)
}

// Close closes the underlying database.
func (ed *EntDriver) Close() error {
	return ed.drv.Close()
}

func (ed *EntDriver) query(ctx context.Context, sel *entsql.Selector) ([]*generate.Screen, error) {
	query, args := sel.Query()

	var rows entsql.Rows
	if err := ed.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to query screens: %w", err)
	}
	defer rows.Close()

	out := []*generate.Screen{}
	for rows.Next() {
		var (
			s         generate.Screen
			createdAt int64
		)
		if err := rows.Scan(
			&s.ID,
			&s.GenerationID,
			&s.Index,
			&s.Name,
			&s.Description,
			&s.Code,
			&s.Truncated,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan screen: %w", err)
		}
		s.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read screens: %w", err)
	}
	return out, nil
}
