package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
	"github.com/sakif/tenxdev/internal/storage"
	"github.com/sakif/tenxdev/internal/tags"
)

// maxSlugAttempts bounds how many numbered variants Create tries when the
// plain slug of a title is taken.
const maxSlugAttempts = 5

// ContentService manages videos and documents.
type ContentService struct {
	repo    repository.ContentRepository
	cards   repository.CardRepository
	storage storage.Storage
	logger  *slog.Logger
	now     func() time.Time
}

func NewContentService(repo repository.ContentRepository, cards repository.CardRepository,
	store storage.Storage, logger *slog.Logger) *ContentService {
	if store == nil {
		store = storage.None{}
	}
	return &ContentService{
		repo:    repo,
		cards:   cards,
		storage: store,
		logger:  logger,
		now:     time.Now,
	}
}

// ContentListParams are the raw content list parameters.
type ContentListParams struct {
	Type   string
	Search string
	Page   *int
	Limit  *int
}

// Create validates in and stores a new video or document.
//
// Videos need a YouTube URL; the video id is parsed from it when not given and
// the thumbnail defaults to YouTube's hqdefault image. Documents need a
// file_url or a storage file_path, which is resolved to its public URL.
func (s *ContentService) Create(ctx context.Context, in model.ContentInput) Result[*model.Content] {
	c, err := s.build(ctx, in)
	if err != nil {
		return failure[*model.Content](s.logger, "create content", err)
	}

	base := c.Slug
	for attempt := 1; ; attempt++ {
		err = s.repo.Create(ctx, c)
		if apperror.KindOf(err) != apperror.KindConflict || attempt == maxSlugAttempts {
			break
		}
		c.Slug = fmt.Sprintf("%s-%d", base, attempt+1)
	}
	if err != nil {
		return failure[*model.Content](s.logger, "create content", err)
	}

	s.logger.Info("content created",
		slog.String("id", c.ID),
		slog.String("type", string(c.Type)),
		slog.String("slug", c.Slug),
	)
	return created(c)
}

func (s *ContentService) build(ctx context.Context, in model.ContentInput) (*model.Content, error) {
	in.Title = strings.TrimSpace(in.Title)

	var fields []apperror.FieldError
	if in.Title == "" {
		fields = append(fields, apperror.FieldError{Field: "title", Message: "title is required"})
	}
	if !in.Type.Valid() {
		fields = append(fields, apperror.FieldError{Field: "content_type", Message: "content_type must be one of video, document"})
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	c := &model.Content{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		Slug:        slug.Make(in.Title),
		Tags:        tags.NormalizeTags(in.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Category != "" {
		c.Category = tags.NormalizeTag(in.Category)
	}
	if c.Slug == "" {
		c.Slug = c.ID
	}

	switch in.Type {
	case model.ContentVideo:
		videoID := strings.TrimSpace(in.VideoID)
		if in.YouTubeURL == "" {
			fields = append(fields, apperror.FieldError{Field: "youtube_url", Message: "youtube_url is required for videos"})
		} else if videoID == "" {
			videoID = YouTubeID(in.YouTubeURL)
			if videoID == "" {
				fields = append(fields, apperror.FieldError{Field: "youtube_url", Message: "youtube_url is not a YouTube video link"})
			}
		}
		c.YouTubeURL = model.StringPtr(strings.TrimSpace(in.YouTubeURL))
		c.VideoID = model.StringPtr(videoID)
		c.Thumbnail = model.StringPtr(in.Thumbnail)
		if c.Thumbnail == nil && videoID != "" {
			c.Thumbnail = model.StringPtr(YouTubeThumbnail(videoID))
		}

	case model.ContentDocument:
		fileURL := strings.TrimSpace(in.FileURL)
		if fileURL == "" && in.FilePath != "" {
			u, err := s.storage.PublicURL(in.FilePath)
			if err != nil {
				fields = append(fields, apperror.FieldError{Field: "file_path", Message: "file_path cannot be resolved: " + err.Error()})
			}
			fileURL = u
		} else if fileURL == "" {
			fields = append(fields, apperror.FieldError{Field: "file_url", Message: "file_url or file_path is required for documents"})
		}
		c.FileURL = model.StringPtr(fileURL)
		c.FileType = model.StringPtr(in.FileType)
		c.MarkdownContent = model.StringPtr(in.MarkdownContent)
		if in.FileSize < 0 {
			fields = append(fields, apperror.FieldError{Field: "file_size", Message: "file_size must not be negative"})
		} else if in.FileSize > 0 {
			size := in.FileSize
			c.FileSize = &size
		}
	}

	if len(fields) > 0 {
		return nil, apperror.Invalid(fields)
	}

	if id := strings.TrimSpace(in.CardFeatureID); id != "" {
		if err := s.ensureCard(ctx, id); err != nil {
			return nil, err
		}
		c.CardFeatureID = &id
	}
	return c, nil
}

// ensureCard reports a missing featured card as a validation error: the
// request is wrong, not the content.
func (s *ContentService) ensureCard(ctx context.Context, id string) error {
	_, err := s.cards.GetByID(ctx, id)
	if apperror.KindOf(err) == apperror.KindNotFound {
		return apperror.ValidationFailed("card_feature_id", fmt.Sprintf("card %s does not exist", id))
	}
	return err
}

func (s *ContentService) FindByID(ctx context.Context, id string) Result[*model.Content] {
	c, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return failure[*model.Content](s.logger, "find content", err)
	}
	return ok(c)
}

func (s *ContentService) FindBySlug(ctx context.Context, value string) Result[*model.Content] {
	c, err := s.repo.GetBySlug(ctx, strings.TrimSpace(value))
	if err != nil {
		return failure[*model.Content](s.logger, "find content", err)
	}
	return ok(c)
}

// FindAll lists contents newest first. Type "all" or empty lists both kinds.
func (s *ContentService) FindAll(ctx context.Context, p ContentListParams) Result[[]model.Content] {
	q := repository.ContentQuery{Search: strings.TrimSpace(p.Search)}
	if t := strings.TrimSpace(p.Type); t != "" && !strings.EqualFold(t, repository.FilterAll) {
		q.Type = model.ContentKind(t)
		if !q.Type.Valid() {
			return failure[[]model.Content](s.logger, "list contents",
				apperror.ValidationFailed("type", "type must be one of video, document"))
		}
	}
	if p.Page != nil && p.Limit != nil {
		q.Range = repository.PageRange(*p.Page, *p.Limit)
	}

	list, total, err := s.repo.List(ctx, q)
	if err != nil {
		return failure[[]model.Content](s.logger, "list contents", err)
	}
	if list == nil {
		list = []model.Content{}
	}
	return okCount(list, total)
}

// Update applies patch in one store transaction. Changing the YouTube URL
// re-derives the video id.
func (s *ContentService) Update(ctx context.Context, id string, patch model.ContentPatch) Result[*model.Content] {
	id = strings.TrimSpace(id)
	if patch.Title.Set {
		patch.Title.Value = strings.TrimSpace(patch.Title.Value)
		if patch.Title.Value == "" {
			return failure[*model.Content](s.logger, "update content", apperror.ValidationFailed("title", "title must not be empty"))
		}
	}
	if patch.Tags.Set {
		patch.Tags.Value = tags.NormalizeTags(patch.Tags.Value)
	}
	if patch.Category.Set && patch.Category.Value != "" {
		patch.Category.Value = tags.NormalizeTag(patch.Category.Value)
	}
	if v, set := patch.CardFeatureID.Get(); set && v != "" {
		if err := s.ensureCard(ctx, v); err != nil {
			return failure[*model.Content](s.logger, "update content", err)
		}
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	c, err := s.repo.Update(ctx, id, func(c *model.Content) error {
		patch.Apply(c, now)
		if c.Type != model.ContentVideo || !patch.YouTubeURL.Set {
			return nil
		}
		if c.YouTubeURL == nil {
			return apperror.ValidationFailed("youtube_url", "youtube_url is required for videos")
		}
		videoID := YouTubeID(*c.YouTubeURL)
		if videoID == "" {
			return apperror.ValidationFailed("youtube_url", "youtube_url is not a YouTube video link")
		}
		c.VideoID = &videoID
		if !patch.Thumbnail.Set {
			c.Thumbnail = model.StringPtr(YouTubeThumbnail(videoID))
		}
		return nil
	})
	if err != nil {
		return failure[*model.Content](s.logger, "update content", err)
	}

	s.logger.Info("content updated", slog.String("id", id))
	return ok(c)
}

// Delete removes the content row and then, best effort, the stored file it
// points to. A storage failure is logged but does not fail the delete.
func (s *ContentService) Delete(ctx context.Context, id string) Result[Deleted] {
	id = strings.TrimSpace(id)
	c, err := s.repo.Delete(ctx, id)
	if err != nil {
		return failure[Deleted](s.logger, "delete content", err)
	}

	if c.FileURL != nil {
		if path, ok := s.storage.ObjectPath(*c.FileURL); ok {
			if err := s.storage.Remove(ctx, path); err != nil {
				s.logger.Warn("failed to remove stored file",
					slog.String("id", id),
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	s.logger.Info("content deleted", slog.String("id", id))
	return ok(Deleted{IDs: []string{id}, Count: 1})
}

// YouTubeID extracts the video id from the common YouTube link shapes:
// watch?v=, youtu.be/, /embed/, /shorts/, /live/ and /v/. It returns "" for
// anything else.
func YouTubeID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
			break
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 {
			switch parts[0] {
			case "embed", "shorts", "live", "v":
				id = parts[1]
			}
		}
	}
	if !validVideoID(id) {
		return ""
	}
	return id
}

// YouTubeThumbnail is the default thumbnail for a video id.
func YouTubeThumbnail(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/hqdefault.jpg"
}

func validVideoID(id string) bool {
	if len(id) != 11 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
