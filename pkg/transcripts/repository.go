package transcripts

import (
	"context"

	"gorm.io/gorm"

	"github.com/pitabwire/frame/datastore/pool"
)

// Repository provides CRUD operations for stored transcripts.
type Repository struct {
	pool pool.Pool
}

// NewRepository creates a new transcript repository.
func NewRepository(pool pool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context, readOnly bool) *gorm.DB {
	return r.pool.DB(ctx, readOnly)
}

// Create persists a transcript.
func (r *Repository) Create(ctx context.Context, tr *Transcript) error {
	return r.db(ctx, false).Create(tr).Error
}

// GetByID returns a transcript by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Transcript, error) {
	var tr Transcript
	err := r.db(ctx, true).Where("id = ?", id).First(&tr).Error
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

// ListByStream returns a stream's transcripts in recognition order.
func (r *Repository) ListByStream(ctx context.Context, streamID string, limit, offset int) ([]Transcript, error) {
	var trs []Transcript
	q := r.db(ctx, true).
		Where("stream_id = ?", streamID).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	err := q.Find(&trs).Error
	return trs, err
}

// DeleteByStream soft-deletes all transcripts of a stream.
func (r *Repository) DeleteByStream(ctx context.Context, streamID string) error {
	return r.db(ctx, false).Where("stream_id = ?", streamID).Delete(&Transcript{}).Error
}
