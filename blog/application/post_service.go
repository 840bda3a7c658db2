package application

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/rs/zerolog/log"
)

// Paths are the storage locations of the site's managed files.
type Paths struct {
	Index   string
	Archive string
	Images  string
}

// DefaultPaths matches the layout the public site serves.
var DefaultPaths = Paths{
	Index:   "/posts/posts.json",
	Archive: "/archive",
	Images:  "/images",
}

type PostService struct {
	store    domain.ContentStore
	index    *IndexSynchronizer
	markdown MarkdownRenderer
	pages    *PageRenderer
	paths    Paths

	now func() time.Time
}

func NewPostService(store domain.ContentStore, index *IndexSynchronizer, markdown MarkdownRenderer, pages *PageRenderer, paths Paths) *PostService {
	return &PostService{
		store:    store,
		index:    index,
		markdown: markdown,
		pages:    pages,
		paths:    paths,
		now:      time.Now,
	}
}

// PublishRequest is the input of a publication. ID is set when editing an
// existing post and wins over Slug; Slug overrides the title-derived slug for
// new posts. An empty Date means today.
type PublishRequest struct {
	Title  string
	Date   string
	Tags   []string
	Body   string
	Format BodyFormat
	ID     string
	Slug   string
}

type PublishResult struct {
	Record  domain.PostRecord
	Created bool
	Index   *domain.Index
}

// Publish writes the post page and then records it in the index.
// The page write happens before the index mutation, so the index never
// references a page that failed to write. If the index mutation fails the
// page is left unreferenced; publishing again repairs it.
func (s *PostService) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	rec, slug, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	editing := strings.TrimSpace(req.ID) != ""

	if req.Format == FormatMarkdown {
		html, err := s.markdown.Render([]byte(req.Body))
		if err != nil {
			return nil, &domain.PublicationError{Step: domain.StepRender, Path: rec.ID, Err: err}
		}
		rec.RenderedBody = strings.TrimSpace(string(html))
	}
	rec.Excerpt = Excerpt(rec.RenderedBody)

	page, err := s.pages.Render(rec)
	if err != nil {
		return nil, &domain.PublicationError{Step: domain.StepRender, Path: rec.ID, Err: err}
	}

	revision, err := s.existingRevision(ctx, rec.ID, editing)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Add post %s", slug)
	if revision != "" {
		message = fmt.Sprintf("Update post %s", slug)
	}
	if _, err := s.store.WriteBlob(ctx, rec.ID, page, message, revision); err != nil {
		return nil, &domain.PublicationError{Step: domain.StepWriteContent, Path: rec.ID, Err: err}
	}

	idx, err := s.index.ApplyMutation(ctx, UpsertRecord(rec), fmt.Sprintf("Update %s with %s", path.Base(s.index.Path()), slug))
	if err != nil {
		log.Warn().Err(err).Str("path", rec.ID).Msg("Post page written but index not updated; publish again to repair")
		return nil, &domain.PublicationError{Step: domain.StepUpdateIndex, Path: rec.ID, Err: err}
	}

	log.Info().Str("path", rec.ID).Bool("created", revision == "").Msg("Post published")

	return &PublishResult{
		Record:  rec,
		Created: revision == "",
		Index:   idx,
	}, nil
}

// prepare validates the request and builds the record without touching the store.
func (s *PostService) prepare(req PublishRequest) (domain.PostRecord, string, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.PostRecord{}, "", domain.ValidationError("title is required")
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = s.now().Format(domain.DateLayout)
	}
	published, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return domain.PostRecord{}, "", domain.ValidationError("date %q is not YYYY-MM-DD", date)
	}

	id := strings.TrimSpace(req.ID)
	var slug string
	if id != "" {
		if err := s.checkPostPath(id); err != nil {
			return domain.PostRecord{}, "", err
		}
		slug = strings.TrimSuffix(path.Base(id), path.Ext(id))
	} else {
		source := strings.TrimSpace(req.Slug)
		if source == "" {
			source = title
		}
		slug = Slugify(source)
		if slug == "" {
			return domain.PostRecord{}, "", domain.ValidationError("identifier is empty: %q has no usable slug characters", source)
		}
		id = s.PostPath(published, slug)
	}

	return domain.PostRecord{
		ID:           id,
		Title:        title,
		Date:         date,
		Tags:         NormalizeTags(req.Tags),
		RenderedBody: strings.TrimSpace(req.Body),
	}, slug, nil
}

// checkPostPath accepts only clean page paths under the archive, so an edit
// can never write over the index, an image or any other managed file.
func (s *PostService) checkPostPath(id string) error {
	archive := strings.TrimRight(s.paths.Archive, "/") + "/"
	switch {
	case !strings.HasPrefix(id, "/"):
		return domain.ValidationError("identifier %q must be a rooted path", id)
	case path.Clean(id) != id:
		return domain.ValidationError("identifier %q is not a clean path", id)
	case !strings.HasPrefix(id, archive):
		return domain.ValidationError("identifier %q is outside %s", id, archive)
	case path.Ext(id) != ".html" || path.Base(id) == ".html":
		return domain.ValidationError("identifier %q is not an .html page", id)
	case id == s.index.Path():
		return domain.ValidationError("identifier %q is the index", id)
	}
	return nil
}

// existingRevision returns the revision the page write must be conditioned on.
// Edits must target a post the index lists; its page, if missing, is recreated.
// For new posts an existing page is only reused when no index record
// references it, which is the state a failed index update leaves behind;
// otherwise the path belongs to another post.
func (s *PostService) existingRevision(ctx context.Context, id string, editing bool) (string, error) {
	if editing {
		idx, err := s.index.ReadIndex(ctx)
		if err != nil {
			return "", &domain.PublicationError{Step: domain.StepFetchContent, Path: id, Err: err}
		}
		if idx.Corrupt {
			return "", &domain.PublicationError{
				Step: domain.StepFetchContent,
				Path: id,
				Err:  fmt.Errorf("%w: cannot look up %s at revision %s", domain.ErrCorruptIndex, id, idx.Revision),
			}
		}
		if idx.Find(id) < 0 {
			return "", &domain.PublicationError{
				Step: domain.StepFetchContent,
				Path: id,
				Err:  fmt.Errorf("%w: no post %s in index; publish without an identifier to create it", domain.ErrNotFound, id),
			}
		}
	}

	blob, err := s.store.FetchBlob(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", &domain.PublicationError{Step: domain.StepFetchContent, Path: id, Err: err}
	}
	if editing {
		return blob.Revision, nil
	}

	idx, err := s.index.ReadIndex(ctx)
	if err != nil {
		return "", &domain.PublicationError{Step: domain.StepFetchContent, Path: id, Err: err}
	}
	if idx.Find(id) >= 0 {
		return "", &domain.PublicationError{
			Step: domain.StepWriteContent,
			Path: id,
			Err:  fmt.Errorf("%w: a published post already uses %s; edit it or choose another slug", domain.ErrConflict, id),
		}
	}

	log.Info().Str("path", id).Msg("Reusing unreferenced post page")
	return blob.Revision, nil
}

// PostPath derives the storage path of a new post.
func (s *PostService) PostPath(published time.Time, slug string) string {
	return fmt.Sprintf("%s/%04d/%02d/%s.html", strings.TrimRight(s.paths.Archive, "/"), published.Year(), int(published.Month()), slug)
}

type DeleteResult struct {
	ID             string
	ContentDeleted bool
	Index          *domain.Index
}

// Delete removes a post: first its page, best effort, then its index record.
// A page that is already gone is logged and ignored. Any other failure deleting
// the page aborts before the index is touched, so the index never lists a post
// whose page was removed by this call.
func (s *PostService) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ValidationError("identifier is required")
	}

	current, err := s.index.ReadIndex(ctx)
	if err != nil {
		return nil, err
	}
	if current.Find(id) < 0 {
		return nil, fmt.Errorf("%w: no post %s in index", domain.ErrNotFound, id)
	}

	deleted, err := s.deleteContent(ctx, id)
	if err != nil {
		return nil, err
	}

	idx, err := s.index.ApplyMutation(ctx, RemoveRecord(id), fmt.Sprintf("Remove from %s %s", path.Base(s.index.Path()), id))
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", id).Bool("contentDeleted", deleted).Msg("Post deleted")

	return &DeleteResult{
		ID:             id,
		ContentDeleted: deleted,
		Index:          idx,
	}, nil
}

func (s *PostService) deleteContent(ctx context.Context, id string) (bool, error) {
	blob, err := s.store.FetchBlob(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Str("path", id).Msg("Post page already gone, removing index record only")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch post page %s: %w", id, err)
	}

	err = s.store.DeleteBlob(ctx, id, fmt.Sprintf("Delete post %s", id), blob.Revision)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Str("path", id).Msg("Post page already gone, removing index record only")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete post page %s: %w", id, err)
	}
	return true, nil
}

// ImageUpload is one image to store.
type ImageUpload struct {
	Name    string
	Content []byte
	At      time.Time
}

// UploadImage stores an image under <images>/<yyyy>/<mm>/<millis>-<slug><ext>.
// Images are never overwritten; a path collision is an ErrConflict.
func (s *PostService) UploadImage(ctx context.Context, up ImageUpload) (*domain.ImageAsset, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(up.Name), `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return nil, domain.ValidationError("image name is required")
	}
	if len(up.Content) == 0 {
		return nil, domain.ValidationError("image %s is empty", name)
	}

	at := up.At
	if at.IsZero() {
		at = s.now()
	}

	p := s.ImagePath(name, at)
	revision, err := s.store.WriteBlob(ctx, p, up.Content, fmt.Sprintf("Upload image %s", path.Base(p)), "")
	if err != nil {
		return nil, fmt.Errorf("failed to upload image %s: %w", name, err)
	}

	log.Info().Str("path", p).Int("bytes", len(up.Content)).Msg("Image uploaded")

	return &domain.ImageAsset{
		Path:       p,
		Name:       name,
		Revision:   revision,
		Size:       len(up.Content),
		UploadedAt: at,
	}, nil
}

// ImagePath derives the storage path of an uploaded image.
func (s *PostService) ImagePath(name string, at time.Time) string {
	ext := strings.ToLower(path.Ext(name))
	slug := Slugify(strings.TrimSuffix(name, path.Ext(name)))
	if slug == "" {
		slug = "image"
	}
	return fmt.Sprintf("%s/%04d/%02d/%d-%s%s", strings.TrimRight(s.paths.Images, "/"), at.Year(), int(at.Month()), at.UnixMilli(), slug, ext)
}

// List returns a read-only snapshot of the index.
func (s *PostService) List(ctx context.Context) (*domain.Index, error) {
	return s.index.ReadIndex(ctx)
}

// Get returns the index record for id.
func (s *PostService) Get(ctx context.Context, id string) (*domain.PostRecord, error) {
	idx, err := s.index.ReadIndex(ctx)
	if err != nil {
		return nil, err
	}
	i := idx.Find(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: no post %s in index", domain.ErrNotFound, id)
	}
	rec := idx.Records[i]
	return &rec, nil
}

// NormalizeTags trims tags, drops empties and duplicates, and keeps first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ParseTags splits a comma-separated tag list.
func ParseTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}
