package userservice

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProgressEntries tracks per course learning progress. Entries are upserted
// on (user, course) and never deleted by any exposed operation.
type ProgressEntries interface {
	repository.Repository[*ProgressEntry]

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*ProgressEntry, error)
	SetProgress(ctx context.Context, userID uuid.UUID, courseID string, progress float64) (*ProgressEntry, error)
}

type progressEntries struct {
	repository.Repository[*ProgressEntry]
	db *bun.DB
}

var _ ProgressEntries = (*progressEntries)(nil)

func NewProgressRepository(db *bun.DB) ProgressEntries {
	repo := repository.NewRepository[*ProgressEntry](db, repository.ModelHandlers[*ProgressEntry]{
		NewRecord: func() *ProgressEntry { return &ProgressEntry{} },
		GetID: func(p *ProgressEntry) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *ProgressEntry, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "course_id"
		},
	})

	return &progressEntries{
		Repository: repo,
		db:         db,
	}
}

func (a *progressEntries) ListByUser(ctx context.Context, userID uuid.UUID) ([]*ProgressEntry, error) {
	records := []*ProgressEntry{}
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID.String()).
		Order("last_accessed DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// SetProgress creates the entry on first update for a course and overwrites
// progress and last accessed in place afterwards. The unique index on
// (user_id, course_id) carries the one-entry-per-course invariant.
func (a *progressEntries) SetProgress(ctx context.Context, userID uuid.UUID, courseID string, progress float64) (*ProgressEntry, error) {
	now := time.Now()
	entry := &ProgressEntry{
		ID:           uuid.New(),
		UserID:       userID,
		CourseID:     courseID,
		Progress:     progress,
		LastAccessed: &now,
	}

	_, err := a.db.NewInsert().
		Model(entry).
		On("CONFLICT (user_id, course_id) DO UPDATE").
		Set("progress = EXCLUDED.progress").
		Set("last_accessed = EXCLUDED.last_accessed").
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	record := &ProgressEntry{}
	err = a.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID.String()).
		Where("?TableAlias.course_id = ?", courseID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return record, nil
}
