package engagement

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/app"
	"github.com/oggyb/social-graph/internal/db"
	svcErr "github.com/oggyb/social-graph/internal/errors"
	"github.com/oggyb/social-graph/internal/metrics"
	"github.com/oggyb/social-graph/internal/repository"
	"github.com/oggyb/social-graph/internal/service/notify"
)

const (
	msgLiked     = "liked your post"
	msgCommented = "commented on your post"
)

type commentInput struct {
	Content string `validate:"required,max=1000"`
}

// Service owns likes and comments on posts and keeps the post counters in
// step with them.
//
// Every mutation runs in one transaction: the join-row write, the counter
// delta and the notification commit together or not at all.
type Service struct {
	appCtx      *app.AppContext
	accountRepo *repository.AccountRepository
	postRepo    *repository.PostRepository
	likeRepo    *repository.LikeRepository
	commentRepo *repository.CommentRepository
	notifier    *notify.Service
}

func NewEngagementService(appCtx *app.AppContext, notifier *notify.Service) *Service {
	return &Service{
		appCtx:      appCtx,
		accountRepo: repository.NewAccountRepository(appCtx.DB),
		postRepo:    repository.NewPostRepository(appCtx.DB),
		likeRepo:    repository.NewLikeRepository(appCtx.DB),
		commentRepo: repository.NewCommentRepository(appCtx.DB),
		notifier:    notifier,
	}
}

// Like records userID's like on postID.
//
// Behavior:
//   - unknown user or post → ErrNotFound.
//   - pair already liked → (false, nil), nothing else changes.
//   - otherwise the like row and like_count+1 are written together and the
//     author gets a "like" notification unless they liked their own post.
func (s *Service) Like(ctx context.Context, userID, postID uint64) (bool, error) {
	s.appCtx.Logger.Debug("Like called", "user", userID, "post", postID)

	var applied bool
	var notified uint64
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.accountRepo.WithTx(tx).ResolveByID(ctx, userID); err != nil {
			return err
		}
		post, err := s.postRepo.WithTx(tx).FindByID(ctx, postID)
		if err != nil {
			return err
		}

		applied, err = s.likeRepo.WithTx(tx).Insert(ctx, userID, postID)
		if err != nil || !applied {
			return err
		}
		if err := s.postRepo.WithTx(tx).IncrementLikes(ctx, postID); err != nil {
			return err
		}

		if post.AccountID == userID {
			return nil
		}
		if _, err := s.notifier.WithTx(tx).Emit(ctx, post.AccountID, userID, msgLiked, db.NotifyLike, &postID, nil); err != nil {
			return err
		}
		notified = post.AccountID
		return nil
	})
	metrics.Action("like", applied, err)
	if err != nil {
		s.appCtx.Logger.Error("Like failed", "user", userID, "post", postID, "err", err, "code", svcErr.Code(err))
		return false, err
	}
	if notified != 0 {
		s.notifier.Invalidate(ctx, notified)
	}

	s.appCtx.Logger.Debug("Like result", "user", userID, "post", postID, "applied", applied)
	return applied, nil
}

// Unlike removes userID's like on postID. The counter only moves when a row
// was actually deleted, and never below zero.
func (s *Service) Unlike(ctx context.Context, userID, postID uint64) (bool, error) {
	s.appCtx.Logger.Debug("Unlike called", "user", userID, "post", postID)

	var applied bool
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.accountRepo.WithTx(tx).ResolveByID(ctx, userID); err != nil {
			return err
		}
		if _, err := s.postRepo.WithTx(tx).FindByID(ctx, postID); err != nil {
			return err
		}

		var err error
		applied, err = s.likeRepo.WithTx(tx).Delete(ctx, userID, postID)
		if err != nil || !applied {
			return err
		}
		return s.postRepo.WithTx(tx).DecrementLikes(ctx, postID)
	})
	metrics.Action("unlike", applied, err)
	if err != nil {
		s.appCtx.Logger.Error("Unlike failed", "user", userID, "post", postID, "err", err, "code", svcErr.Code(err))
		return false, err
	}
	return applied, nil
}

// LikeCount is the authoritative like count, recomputed from like rows
// rather than read from the cached counter.
func (s *Service) LikeCount(ctx context.Context, postID uint64) (int64, error) {
	s.appCtx.Logger.Debug("LikeCount called", "post", postID)

	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		return 0, err
	}
	count, err := s.likeRepo.CountForPost(ctx, postID)
	if err != nil {
		s.appCtx.Logger.Error("CountForPost failed", "post", postID, "err", err, "code", svcErr.Code(err))
		return 0, err
	}
	return count, nil
}

func (s *Service) IsLiked(ctx context.Context, userID, postID uint64) (bool, error) {
	return s.likeRepo.Exists(ctx, userID, postID)
}

// LikesForPost loads the like rows of a post, newest first.
func (s *Service) LikesForPost(ctx context.Context, postID uint64) ([]db.Like, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.likeRepo.ListForPost(ctx, postID)
}

// Comment adds a comment to postID, optionally as a reply.
//
// Behavior:
//   - blank or oversized content → ErrInvalidOperation.
//   - unknown user or post → ErrNotFound.
//   - parentID that cannot be resolved (missing or deleted) → the comment is
//     stored top-level instead of failing.
//   - parentID on a different post → ErrInvalidOperation.
//   - comment_count+1 and a "comment" notification to the post author,
//     unless the author commented on their own post.
func (s *Service) Comment(
	ctx context.Context,
	userID, postID uint64,
	content string,
	parentID *uint64,
) (*db.Comment, error) {
	s.appCtx.Logger.Debug("Comment called", "user", userID, "post", postID, "parent", parentID)

	content = strings.TrimSpace(content)
	if err := s.appCtx.Validate.Struct(commentInput{Content: content}); err != nil {
		return nil, svcErr.InvalidOperation("comment content: %v", err)
	}

	var comment *db.Comment
	var notified uint64
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.accountRepo.WithTx(tx).ResolveByID(ctx, userID); err != nil {
			return err
		}
		post, err := s.postRepo.WithTx(tx).FindByID(ctx, postID)
		if err != nil {
			return err
		}

		parent, err := s.resolveParent(ctx, tx, postID, parentID)
		if err != nil {
			return err
		}

		comment = &db.Comment{PostID: postID, AccountID: userID, ParentID: parent, Content: content}
		if err := s.commentRepo.WithTx(tx).Create(ctx, comment); err != nil {
			return err
		}
		if err := s.postRepo.WithTx(tx).IncrementComments(ctx, postID); err != nil {
			return err
		}

		if post.AccountID == userID {
			return nil
		}
		_, err = s.notifier.WithTx(tx).Emit(ctx, post.AccountID, userID, msgCommented, db.NotifyComment, &postID, &comment.ID)
		if err != nil {
			return err
		}
		notified = post.AccountID
		return nil
	})
	metrics.Action("comment", comment != nil, err)
	if err != nil {
		s.appCtx.Logger.Error("Comment failed", "user", userID, "post", postID, "err", err, "code", svcErr.Code(err))
		return nil, err
	}
	if notified != 0 {
		s.notifier.Invalidate(ctx, notified)
	}
	return comment, nil
}

// resolveParent returns the parent id to store: nil when absent or
// unresolvable, the id itself when it belongs to postID.
func (s *Service) resolveParent(ctx context.Context, tx *gorm.DB, postID uint64, parentID *uint64) (*uint64, error) {
	if parentID == nil {
		return nil, nil
	}
	parent, err := s.commentRepo.WithTx(tx).FindByID(ctx, *parentID)
	if svcErr.IsNotFound(err) {
		s.appCtx.Logger.Debug("parent comment not found, storing top-level", "parent", *parentID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !parent.Active {
		return nil, nil
	}
	if parent.PostID != postID {
		return nil, svcErr.InvalidOperation("parent comment %d belongs to post %d, not %d", parent.ID, parent.PostID, postID)
	}
	id := parent.ID
	return &id, nil
}

// UpdateComment replaces the content of an active comment. Only its author
// may edit it.
func (s *Service) UpdateComment(ctx context.Context, userID, commentID uint64, content string) (*db.Comment, error) {
	s.appCtx.Logger.Debug("UpdateComment called", "user", userID, "comment", commentID)

	content = strings.TrimSpace(content)
	if err := s.appCtx.Validate.Struct(commentInput{Content: content}); err != nil {
		return nil, svcErr.InvalidOperation("comment content: %v", err)
	}

	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !comment.Active {
		return nil, svcErr.NotFound("comment %d", commentID)
	}
	if comment.AccountID != userID {
		return nil, svcErr.Forbidden("account %d cannot edit comment %d", userID, commentID)
	}

	if err := s.commentRepo.UpdateContent(ctx, commentID, content); err != nil {
		s.appCtx.Logger.Error("UpdateContent failed", "comment", commentID, "err", err, "code", svcErr.Code(err))
		return nil, err
	}
	return s.commentRepo.FindByID(ctx, commentID)
}

// DeleteComment soft-deletes a comment. Only its author may delete it.
// comment_count drops by one on the active → inactive transition only, so
// deleting twice reports true but decrements once.
func (s *Service) DeleteComment(ctx context.Context, userID, commentID uint64) (bool, error) {
	s.appCtx.Logger.Debug("DeleteComment called", "user", userID, "comment", commentID)

	var transitioned bool
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comment, err := s.commentRepo.WithTx(tx).FindByID(ctx, commentID)
		if err != nil {
			return err
		}
		if comment.AccountID != userID {
			return svcErr.Forbidden("account %d cannot delete comment %d", userID, commentID)
		}

		transitioned, err = s.commentRepo.WithTx(tx).Deactivate(ctx, commentID)
		if err != nil || !transitioned {
			return err
		}
		return s.postRepo.WithTx(tx).DecrementComments(ctx, comment.PostID)
	})
	metrics.Action("delete_comment", transitioned, err)
	if err != nil {
		s.appCtx.Logger.Error("DeleteComment failed", "comment", commentID, "err", err, "code", svcErr.Code(err))
		return false, err
	}
	return true, nil
}

// CommentsForPost lists active top-level comments, newest first.
func (s *Service) CommentsForPost(ctx context.Context, postID uint64) ([]db.Comment, error) {
	s.appCtx.Logger.Debug("CommentsForPost called", "post", postID)
	return s.commentRepo.TopLevelForPost(ctx, postID)
}

// RepliesTo lists active replies to a comment, newest first.
func (s *Service) RepliesTo(ctx context.Context, commentID uint64) ([]db.Comment, error) {
	s.appCtx.Logger.Debug("RepliesTo called", "comment", commentID)
	return s.commentRepo.RepliesTo(ctx, commentID)
}

// CommentCount is the live count of active comments on the post.
func (s *Service) CommentCount(ctx context.Context, postID uint64) (int64, error) {
	return s.commentRepo.CountActiveForPost(ctx, postID)
}

// Reconcile recomputes both counters of a post from its like and active
// comment rows and stores them. Returns the corrected post.
func (s *Service) Reconcile(ctx context.Context, postID uint64) (*db.Post, error) {
	s.appCtx.Logger.Debug("Reconcile called", "post", postID)

	var post *db.Post
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := s.postRepo.WithTx(tx)
		if _, err := posts.FindByID(ctx, postID); err != nil {
			return err
		}

		likes, err := s.likeRepo.WithTx(tx).CountForPost(ctx, postID)
		if err != nil {
			return err
		}
		comments, err := s.commentRepo.WithTx(tx).CountActiveForPost(ctx, postID)
		if err != nil {
			return err
		}
		if err := posts.SetCounters(ctx, postID, likes, comments); err != nil {
			return err
		}

		post, err = posts.FindByID(ctx, postID)
		return err
	})
	if err != nil {
		s.appCtx.Logger.Error("Reconcile failed", "post", postID, "err", err, "code", svcErr.Code(err))
		return nil, err
	}
	return post, nil
}

// ReconcileAll walks every active post in id order, batchSize at a time,
// and reconciles its counters. Returns how many posts had drifted.
// Posts deleted while the walk runs are skipped.
func (s *Service) ReconcileAll(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	repaired := 0
	var after uint64
	for {
		ids, err := s.postRepo.ActiveIDsAfter(ctx, after, batchSize)
		if err != nil {
			return repaired, err
		}
		if len(ids) == 0 {
			return repaired, nil
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return repaired, err
			}
			before, err := s.postRepo.FindByID(ctx, id)
			if svcErr.IsNotFound(err) {
				continue
			} else if err != nil {
				return repaired, err
			}

			fixed, err := s.Reconcile(ctx, id)
			if svcErr.IsNotFound(err) {
				continue
			} else if err != nil {
				return repaired, err
			}
			if fixed.LikeCount != before.LikeCount || fixed.CommentCount != before.CommentCount {
				repaired++
				metrics.CountersRepaired.Inc()
				s.appCtx.Logger.Warn("post counters drifted",
					"post", id,
					"likes", before.LikeCount, "likes_fixed", fixed.LikeCount,
					"comments", before.CommentCount, "comments_fixed", fixed.CommentCount,
				)
			}
		}
		after = ids[len(ids)-1]
	}
}

// RunReconciler calls ReconcileAll every interval until ctx is done.
// A non-positive interval disables it. Pass failures are logged and the
// loop keeps going.
func (s *Service) RunReconciler(ctx context.Context, interval time.Duration, batchSize int) error {
	if interval <= 0 {
		s.appCtx.Logger.Info("counter reconciler disabled")
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := time.Now()
			repaired, err := s.ReconcileAll(ctx, batchSize)
			if err != nil && ctx.Err() == nil {
				s.appCtx.Logger.Error("reconcile pass failed", "err", err, "code", svcErr.Code(err))
				continue
			}
			s.appCtx.Logger.Info("reconcile pass done", "repaired", repaired, "took", time.Since(start))
		}
	}
}
