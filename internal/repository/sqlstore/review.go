package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/rs/xid"

	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
)

var _ repository.ReviewRepository = (*ReviewStore)(nil)

type ReviewStore struct {
	db *DB
}

// Upsert relies on UNIQUE (card_id, user_id): the second review of the same
// card by the same user replaces rating and comment, keeping id and created_at.
func (s *ReviewStore) Upsert(ctx context.Context, r *model.Review) error {
	r.UpdatedAt = stamp(r.UpdatedAt)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = r.UpdatedAt
	}
	r.CreatedAt = stamp(r.CreatedAt)

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.db.exec(ctx, tx,
			`INSERT INTO reviews (id, card_id, user_id, rating, comment, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (card_id, user_id) DO UPDATE
			 SET rating = excluded.rating, comment = excluded.comment, updated_at = excluded.updated_at`,
			xid.New().String(), r.CardID, r.UserID, r.Rating, r.Comment, r.CreatedAt, r.UpdatedAt,
		)
		if err != nil {
			return translate(err, "upserting review", "review conflict")
		}

		err = s.db.queryRow(ctx, tx,
			`SELECT id, created_at FROM reviews WHERE card_id = ? AND user_id = ?`,
			r.CardID, r.UserID,
		).Scan(&r.ID, &r.CreatedAt)
		if err != nil {
			return fmt.Errorf("sqlstore: reading back review: %w", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		return nil
	})
}

func (s *ReviewStore) ListByCard(ctx context.Context, cardID string) ([]model.Review, error) {
	rows, err := s.db.query(ctx, s.db.conn,
		`SELECT id, card_id, user_id, rating, comment, created_at, updated_at
		 FROM reviews WHERE card_id = ? ORDER BY updated_at DESC, id DESC`,
		cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing reviews: %w", err)
	}
	defer rows.Close()

	out := make([]model.Review, 0)
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.CardID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning review: %w", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		r.UpdatedAt = r.UpdatedAt.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating reviews: %w", err)
	}
	return out, nil
}

// Summary is computed by the database. The average is rounded to two decimals.
func (s *ReviewStore) Summary(ctx context.Context, cardID string) (model.ReviewSummary, error) {
	sum := model.ReviewSummary{CardID: cardID}
	err := s.db.queryRow(ctx, s.db.conn,
		`SELECT COUNT(*), COALESCE(CAST(AVG(rating) AS DOUBLE PRECISION), 0)
		 FROM reviews WHERE card_id = ?`,
		cardID,
	).Scan(&sum.Count, &sum.Average)
	if err != nil {
		return sum, fmt.Errorf("sqlstore: summarizing reviews: %w", err)
	}
	sum.Average = math.Round(sum.Average*100) / 100
	return sum, nil
}

func (s *ReviewStore) Delete(ctx context.Context, cardID, userID string) error {
	res, err := s.db.exec(ctx, s.db.conn,
		`DELETE FROM reviews WHERE card_id = ? AND user_id = ?`, cardID, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting review: %w", err)
	}
	return expectAffected(res, "review for card", cardID)
}
