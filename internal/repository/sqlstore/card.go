package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
)

var _ repository.CardRepository = (*CardStore)(nil)

// CardStore persists CardFeatures. Screens, tags and shared_with are JSON
// documents in TEXT columns.
type CardStore struct {
	db *DB
}

const cardColumns = `id, title, description, tech, language, card_type, content_type,
	category, tags, visibility, user_id, shared_with, screens, created_at, updated_at`

// Create inserts a card. The caller assigns the id and timestamps (model.NewCard).
func (s *CardStore) Create(ctx context.Context, card *model.CardFeature) error {
	return s.insert(ctx, s.db.conn, card)
}

// CreateMany inserts all cards in one transaction; the first failure rolls
// every insert back.
func (s *CardStore) CreateMany(ctx context.Context, cards []*model.CardFeature) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range cards {
			if err := s.insert(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *CardStore) insert(ctx context.Context, q querier, card *model.CardFeature) error {
	card.CreatedAt = stamp(card.CreatedAt)
	card.UpdatedAt = stamp(card.UpdatedAt)

	args, err := cardArgs(card)
	if err != nil {
		return err
	}
	_, err = s.db.exec(ctx, q,
		`INSERT INTO card_features (`+cardColumns+`)
		 VALUES (`+placeholders(15)+`)`,
		append([]any{card.ID}, args...)...,
	)
	return translate(err, "creating card", fmt.Sprintf("card %s already exists", card.ID))
}

// GetByID returns the card or NotFound.
func (s *CardStore) GetByID(ctx context.Context, id string) (*model.CardFeature, error) {
	return s.get(ctx, s.db.conn, id, "")
}

func (s *CardStore) get(ctx context.Context, q querier, id, suffix string) (*model.CardFeature, error) {
	row := s.db.queryRow(ctx, q,
		`SELECT `+cardColumns+` FROM card_features WHERE id = ?`+suffix, id)
	card, err := scanCard(row)
	if err != nil {
		return nil, notFoundOr(err, "card", id, "getting card "+id)
	}
	return card, nil
}

// List runs a composed CardQuery: the total count of matching rows, then the
// requested window of them.
func (s *CardStore) List(ctx context.Context, q repository.CardQuery) ([]model.CardFeature, int, error) {
	where, args := cardWhere(q, s.db.dialect.lower)

	var total int
	if err := s.db.queryRow(ctx, s.db.conn,
		`SELECT COUNT(*) FROM card_features`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlstore: counting cards: %w", err)
	}

	dir := "DESC"
	if !q.Sort.Desc {
		dir = "ASC"
	}
	query := `SELECT ` + cardColumns + ` FROM card_features` + where +
		` ORDER BY ` + q.Sort.Column + ` ` + dir + `, id ` + dir
	if q.Range != nil {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Range.Limit(), q.Range.From)
	}

	rows, err := s.db.query(ctx, s.db.conn, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlstore: listing cards: %w", err)
	}
	defer rows.Close()

	cards := make([]model.CardFeature, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlstore: scanning card row: %w", err)
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlstore: iterating cards: %w", err)
	}
	return cards, total, nil
}

// cardWhere renders the filter, search and visibility parts of q. Column names
// come from repository.BuildCardQuery's whitelist, values are always bound.
// lower names the dialect's case-folding function.
func cardWhere(q repository.CardQuery, lower string) (string, []any) {
	var conds []string
	var args []any

	for _, f := range q.Filters {
		conds = append(conds, f.Column+" = ?")
		args = append(args, f.Value)
	}

	if q.Search != "" && len(q.SearchColumns) > 0 {
		pattern := likePattern(q.Search)
		ors := make([]string, len(q.SearchColumns))
		for i, col := range q.SearchColumns {
			ors[i] = lower + "(" + col + `) LIKE ? ESCAPE '\'`
			args = append(args, pattern)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	if !q.ViewAll {
		if q.Viewer == "" {
			conds = append(conds, "visibility = ?")
			args = append(args, string(model.VisibilityPublic))
		} else {
			// shared_with is a JSON array of ids, so a quoted id is an exact element match.
			conds = append(conds, "(visibility = ? OR user_id = ? OR shared_with LIKE ?)")
			args = append(args, string(model.VisibilityPublic), q.Viewer, `%"`+q.Viewer+`"%`)
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Update loads the card, hands it to fn and writes the result, all inside one
// transaction. On Postgres the row is locked (SELECT … FOR UPDATE) so a
// concurrent update waits instead of being overwritten.
func (s *CardStore) Update(ctx context.Context, id string, fn repository.CardUpdateFunc) (*model.CardFeature, error) {
	var updated *model.CardFeature
	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		card, err := s.get(ctx, tx, id, s.db.dialect.forUpdate)
		if err != nil {
			return err
		}
		if err := fn(card); err != nil {
			return err
		}
		card.ID = id
		card.UpdatedAt = stamp(card.UpdatedAt)

		args, err := cardArgs(card)
		if err != nil {
			return err
		}
		res, err := s.db.exec(ctx, tx,
			`UPDATE card_features
			 SET title = ?, description = ?, tech = ?, language = ?, card_type = ?,
			     content_type = ?, category = ?, tags = ?, visibility = ?, user_id = ?,
			     shared_with = ?, screens = ?, created_at = ?, updated_at = ?
			 WHERE id = ?`,
			append(args, id)...,
		)
		if err != nil {
			return translate(err, "updating card "+id, "card conflict")
		}
		if err := expectAffected(res, "card", id); err != nil {
			return err
		}
		updated = card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the card and every bookmark of it in one transaction. No rows
// affected means NotFound. Reviews go with the card through ON DELETE CASCADE;
// saved_items has no foreign key because item_id also points at contents.
func (s *CardStore) Delete(ctx context.Context, id string) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		return s.deleteOne(ctx, tx, id)
	})
}

// DeleteMany deletes all ids or, if any is missing, none of them.
func (s *CardStore) DeleteMany(ctx context.Context, ids []string) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if err := s.deleteOne(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *CardStore) deleteOne(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := s.db.exec(ctx, tx, `DELETE FROM card_features WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting card %s: %w", id, err)
	}
	if err := expectAffected(res, "card", id); err != nil {
		return err
	}
	return s.db.unsaveAll(ctx, tx, model.ItemCard, id)
}

// Summaries returns the columns GetStats reduces over, for every card.
func (s *CardStore) Summaries(ctx context.Context) ([]model.CardSummary, error) {
	rows, err := s.db.query(ctx, s.db.conn, `SELECT tech, language, created_at FROM card_features`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: selecting card summaries: %w", err)
	}
	defer rows.Close()

	out := make([]model.CardSummary, 0)
	for rows.Next() {
		var cs model.CardSummary
		if err := rows.Scan(&cs.Tech, &cs.Language, &cs.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning card summary: %w", err)
		}
		cs.CreatedAt = cs.CreatedAt.UTC()
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating card summaries: %w", err)
	}
	return out, nil
}

// cardArgs returns every column value after id, in cardColumns order.
func cardArgs(c *model.CardFeature) ([]any, error) {
	tags, err := encodeJSON(nonNilStrings(c.Tags))
	if err != nil {
		return nil, err
	}
	shared, err := encodeJSON(nonNilStrings(c.SharedWith))
	if err != nil {
		return nil, err
	}
	screens := c.Screens
	if screens == nil {
		screens = []model.Screen{}
	}
	screensJSON, err := encodeJSON(screens)
	if err != nil {
		return nil, err
	}
	return []any{
		c.Title, c.Description, c.Tech, c.Language, string(c.CardType), string(c.ContentType),
		c.Category, tags, string(c.Visibility), nullString(c.UserID), shared, screensJSON,
		stamp(c.CreatedAt), stamp(c.UpdatedAt),
	}, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCard(sc scanner) (*model.CardFeature, error) {
	var (
		c                    model.CardFeature
		cardType, contentTyp string
		visibility           string
		userID               sql.NullString
		tags, shared         string
		screens              string
	)
	if err := sc.Scan(
		&c.ID, &c.Title, &c.Description, &c.Tech, &c.Language, &cardType, &contentTyp,
		&c.Category, &tags, &visibility, &userID, &shared, &screens, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.CardType = model.CardType(cardType)
	c.ContentType = model.ContentType(contentTyp)
	c.Visibility = model.Visibility(visibility)
	c.UserID = userID.String
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()

	if err := decodeJSON(tags, &c.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of card %s: %w", c.ID, err)
	}
	if err := decodeJSON(shared, &c.SharedWith); err != nil {
		return nil, fmt.Errorf("decoding shared_with of card %s: %w", c.ID, err)
	}
	if err := decodeJSON(screens, &c.Screens); err != nil {
		return nil, fmt.Errorf("decoding screens of card %s: %w", c.ID, err)
	}
	c.Tags = nonNilStrings(c.Tags)
	c.SharedWith = nonNilStrings(c.SharedWith)
	if c.Screens == nil {
		c.Screens = []model.Screen{}
	}
	return &c, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sqlstore: encoding json column: %w", err)
	}
	return string(b), nil
}

func decodeJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// stamp normalizes an instant to what both drivers store losslessly.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
