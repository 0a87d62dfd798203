package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
)

var _ repository.ContentRepository = (*ContentStore)(nil)

type ContentStore struct {
	db *DB
}

const contentColumns = `id, title, description, content_type, slug, youtube_url, video_id,
	thumbnail, file_url, file_type, file_size, markdown_content, card_feature_id, category,
	tags, created_at, updated_at`

func (s *ContentStore) Create(ctx context.Context, c *model.Content) error {
	c.CreatedAt = stamp(c.CreatedAt)
	c.UpdatedAt = stamp(c.UpdatedAt)

	args, err := contentArgs(c)
	if err != nil {
		return err
	}
	_, err = s.db.exec(ctx, s.db.conn,
		`INSERT INTO contents (`+contentColumns+`) VALUES (`+placeholders(17)+`)`,
		append([]any{c.ID}, args...)...,
	)
	return translate(err, "creating content", fmt.Sprintf("slug %q is already taken", c.Slug))
}

func (s *ContentStore) GetByID(ctx context.Context, id string) (*model.Content, error) {
	return s.getBy(ctx, s.db.conn, "id", id, "")
}

func (s *ContentStore) GetBySlug(ctx context.Context, slug string) (*model.Content, error) {
	return s.getBy(ctx, s.db.conn, "slug", slug, "")
}

func (s *ContentStore) getBy(ctx context.Context, q querier, column, value, suffix string) (*model.Content, error) {
	row := s.db.queryRow(ctx, q,
		`SELECT `+contentColumns+` FROM contents WHERE `+column+` = ?`+suffix, value)
	c, err := scanContent(row)
	if err != nil {
		return nil, notFoundOr(err, "content", value, "getting content by "+column)
	}
	return c, nil
}

func (s *ContentStore) List(ctx context.Context, q repository.ContentQuery) ([]model.Content, int, error) {
	var (
		conds []string
		args  []any
	)
	if q.Type != "" {
		conds = append(conds, "content_type = ?")
		args = append(args, string(q.Type))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		p := likePattern(search)
		lower := s.db.dialect.lower
		conds = append(conds, "("+lower+`(title) LIKE ? ESCAPE '\' OR `+lower+`(description) LIKE ? ESCAPE '\')`)
		args = append(args, p, p)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.queryRow(ctx, s.db.conn, `SELECT COUNT(*) FROM contents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlstore: counting contents: %w", err)
	}

	query := `SELECT ` + contentColumns + ` FROM contents` + where + ` ORDER BY created_at DESC, id DESC`
	if q.Range != nil {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Range.Limit(), q.Range.From)
	}
	rows, err := s.db.query(ctx, s.db.conn, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlstore: listing contents: %w", err)
	}
	defer rows.Close()

	out := make([]model.Content, 0)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlstore: scanning content row: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlstore: iterating contents: %w", err)
	}
	return out, total, nil
}

// Update applies fn to the stored row inside a transaction, like CardStore.Update.
func (s *ContentStore) Update(ctx context.Context, id string, fn repository.ContentUpdateFunc) (*model.Content, error) {
	var updated *model.Content
	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		c, err := s.getBy(ctx, tx, "id", id, s.db.dialect.forUpdate)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		c.ID = id
		c.UpdatedAt = stamp(c.UpdatedAt)

		args, err := contentArgs(c)
		if err != nil {
			return err
		}
		res, err := s.db.exec(ctx, tx,
			`UPDATE contents
			 SET title = ?, description = ?, content_type = ?, slug = ?, youtube_url = ?,
			     video_id = ?, thumbnail = ?, file_url = ?, file_type = ?, file_size = ?,
			     markdown_content = ?, card_feature_id = ?, category = ?, tags = ?,
			     created_at = ?, updated_at = ?
			 WHERE id = ?`,
			append(args, id)...,
		)
		if err != nil {
			return translate(err, "updating content "+id, fmt.Sprintf("slug %q is already taken", c.Slug))
		}
		if err := expectAffected(res, "content", id); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the row and returns what was deleted, so the caller can clean
// up the stored file. The read, the delete and the removal of bookmarks of a
// video share one transaction.
func (s *ContentStore) Delete(ctx context.Context, id string) (*model.Content, error) {
	var deleted *model.Content
	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		c, err := s.getBy(ctx, tx, "id", id, s.db.dialect.forUpdate)
		if err != nil {
			return err
		}
		res, err := s.db.exec(ctx, tx, `DELETE FROM contents WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlstore: deleting content %s: %w", id, err)
		}
		if err := expectAffected(res, "content", id); err != nil {
			return err
		}
		if c.Type == model.ContentVideo {
			if err := s.db.unsaveAll(ctx, tx, model.ItemVideo, id); err != nil {
				return err
			}
		}
		deleted = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// contentArgs returns every column value after id, in contentColumns order.
func contentArgs(c *model.Content) ([]any, error) {
	tags, err := encodeJSON(nonNilStrings(c.Tags))
	if err != nil {
		return nil, err
	}
	var size sql.NullInt64
	if c.FileSize != nil {
		size = sql.NullInt64{Int64: *c.FileSize, Valid: true}
	}
	return []any{
		c.Title, c.Description, string(c.Type), c.Slug, c.YouTubeURL, c.VideoID,
		c.Thumbnail, c.FileURL, c.FileType, size, c.MarkdownContent, c.CardFeatureID,
		c.Category, tags, stamp(c.CreatedAt), stamp(c.UpdatedAt),
	}, nil
}

func scanContent(sc scanner) (*model.Content, error) {
	var (
		c                                model.Content
		typ, tags                        string
		youtube, videoID, thumb, fileURL sql.NullString
		fileType, markdown, featured     sql.NullString
		size                             sql.NullInt64
	)
	if err := sc.Scan(
		&c.ID, &c.Title, &c.Description, &typ, &c.Slug, &youtube, &videoID,
		&thumb, &fileURL, &fileType, &size, &markdown, &featured, &c.Category,
		&tags, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Type = model.ContentKind(typ)
	c.YouTubeURL = ptr(youtube)
	c.VideoID = ptr(videoID)
	c.Thumbnail = ptr(thumb)
	c.FileURL = ptr(fileURL)
	c.FileType = ptr(fileType)
	c.MarkdownContent = ptr(markdown)
	c.CardFeatureID = ptr(featured)
	if size.Valid {
		v := size.Int64
		c.FileSize = &v
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()

	if err := decodeJSON(tags, &c.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of content %s: %w", c.ID, err)
	}
	c.Tags = nonNilStrings(c.Tags)
	return &c, nil
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
