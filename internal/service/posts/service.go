package posts

import (
	"context"

	"github.com/oggyb/social-graph/internal/app"
	"github.com/oggyb/social-graph/internal/db"
	svcErr "github.com/oggyb/social-graph/internal/errors"
	"github.com/oggyb/social-graph/internal/repository"
)

// NewPost is the input for Create. Type and Privacy default to text and
// public. A post needs content or a media URL.
type NewPost struct {
	Content  string         `validate:"required_without=MediaURL,max=2000"`
	Type     db.PostType    `validate:"omitempty,oneof=text image video link"`
	Privacy  db.PostPrivacy `validate:"omitempty,oneof=public friends private"`
	MediaURL string         `validate:"omitempty,url,max=512"`
	Location string         `validate:"max=255"`
}

// Service is the post store the feed and engagement modules build on.
type Service struct {
	appCtx      *app.AppContext
	accountRepo *repository.AccountRepository
	postRepo    *repository.PostRepository
}

func NewPostService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		accountRepo: repository.NewAccountRepository(appCtx.DB),
		postRepo:    repository.NewPostRepository(appCtx.DB),
	}
}

// Create stores a new post for authorID. Counters start at zero.
func (s *Service) Create(ctx context.Context, authorID uint64, in NewPost) (*db.Post, error) {
	s.appCtx.Logger.Debug("Create called", "author", authorID, "type", in.Type)

	if err := s.appCtx.Validate.Struct(in); err != nil {
		return nil, svcErr.InvalidOperation("post: %v", err)
	}
	if _, err := s.accountRepo.ResolveByID(ctx, authorID); err != nil {
		return nil, err
	}

	if in.Type == "" {
		in.Type = db.PostText
	}
	if in.Privacy == "" {
		in.Privacy = db.PrivacyPublic
	}

	p := &db.Post{
		AccountID: authorID,
		Content:   in.Content,
		Type:      in.Type,
		Privacy:   in.Privacy,
		MediaURL:  in.MediaURL,
		Location:  in.Location,
	}
	if err := s.postRepo.Create(ctx, p); err != nil {
		s.appCtx.Logger.Error("Create failed", "author", authorID, "err", err, "code", svcErr.Code(err))
		return nil, err
	}
	return p, nil
}

// Get loads an active post.
func (s *Service) Get(ctx context.Context, postID uint64) (*db.Post, error) {
	return s.postRepo.FindByID(ctx, postID)
}

// Delete soft-deletes a post. Only the author may delete it. Likes and
// comments are kept as they are; the post simply drops out of every feed.
func (s *Service) Delete(ctx context.Context, requesterID, postID uint64) error {
	s.appCtx.Logger.Debug("Delete called", "requester", requesterID, "post", postID)

	p, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if p.AccountID != requesterID {
		return svcErr.Forbidden("account %d cannot delete post %d", requesterID, postID)
	}

	if _, err := s.postRepo.SoftDelete(ctx, postID); err != nil {
		s.appCtx.Logger.Error("SoftDelete failed", "post", postID, "err", err, "code", svcErr.Code(err))
		return err
	}
	return nil
}

// LoadAuthor fetches the account that wrote the post.
func (s *Service) LoadAuthor(ctx context.Context, post *db.Post) (*db.Account, error) {
	return s.accountRepo.ResolveByID(ctx, post.AccountID)
}
