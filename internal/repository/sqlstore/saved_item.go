package sqlstore

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
)

var _ repository.SavedItemRepository = (*SavedItemStore)(nil)

type SavedItemStore struct {
	db *DB
}

// Create inserts the saved item. There is no existence check first: the
// UNIQUE (user_id, item_type, item_id) index decides, and a violation comes
// back as a Conflict.
func (s *SavedItemStore) Create(ctx context.Context, item *model.SavedItem) error {
	if item.ID == "" {
		item.ID = xid.New().String()
	}
	item.CreatedAt = stamp(item.CreatedAt)

	_, err := s.db.exec(ctx, s.db.conn,
		`INSERT INTO saved_items (id, user_id, item_type, item_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.UserID, string(item.ItemType), item.ItemID, item.CreatedAt,
	)
	return translate(err, "saving item",
		fmt.Sprintf("%s %s is already saved", item.ItemType, item.ItemID))
}

func (s *SavedItemStore) Delete(ctx context.Context, userID string, itemType model.ItemType, itemID string) error {
	res, err := s.db.exec(ctx, s.db.conn,
		`DELETE FROM saved_items WHERE user_id = ? AND item_type = ? AND item_id = ?`,
		userID, string(itemType), itemID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting saved item: %w", err)
	}
	return expectAffected(res, "saved "+string(itemType), itemID)
}

func (s *SavedItemStore) List(ctx context.Context, userID string, itemType model.ItemType) ([]model.SavedItem, error) {
	query := `SELECT id, user_id, item_type, item_id, created_at FROM saved_items WHERE user_id = ?`
	args := []any{userID}
	if itemType != "" {
		query += ` AND item_type = ?`
		args = append(args, string(itemType))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.query(ctx, s.db.conn, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing saved items: %w", err)
	}
	defer rows.Close()

	items := make([]model.SavedItem, 0)
	for rows.Next() {
		var (
			it  model.SavedItem
			typ string
		)
		if err := rows.Scan(&it.ID, &it.UserID, &typ, &it.ItemID, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning saved item: %w", err)
		}
		it.ItemType = model.ItemType(typ)
		it.CreatedAt = it.CreatedAt.UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating saved items: %w", err)
	}
	return items, nil
}

func (s *SavedItemStore) Exists(ctx context.Context, userID string, itemType model.ItemType, itemID string) (bool, error) {
	var n int
	err := s.db.queryRow(ctx, s.db.conn,
		`SELECT COUNT(*) FROM saved_items WHERE user_id = ? AND item_type = ? AND item_id = ?`,
		userID, string(itemType), itemID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlstore: checking saved item: %w", err)
	}
	return n > 0, nil
}

// unsaveAll removes every user's bookmark of one item. It runs inside the
// transaction that deletes the item itself.
func (db *DB) unsaveAll(ctx context.Context, q querier, itemType model.ItemType, itemID string) error {
	if _, err := db.exec(ctx, q, `DELETE FROM saved_items WHERE item_type = ? AND item_id = ?`,
		string(itemType), itemID); err != nil {
		return fmt.Errorf("sqlstore: removing saved %s %s: %w", itemType, itemID, err)
	}
	return nil
}
