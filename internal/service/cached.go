package service

import (
	"context"

	"github.com/comment-tree-api/internal/cache"
	"github.com/comment-tree-api/internal/metrics"
	"github.com/comment-tree-api/internal/models"
	"github.com/rs/zerolog"
)

// readThrough serves key from the cache or loads and stores it. Cache
// failures are logged and never fail the request. The namespace generation
// is read before the load, so a value loaded across an invalidation is not
// stored.
func readThrough[T any](ctx context.Context, c cache.Cache, log zerolog.Logger, ns cache.Namespace, key string, load func() (T, error)) (T, error) {
	gen, err := c.Generation(ctx, ns)
	if err != nil {
		metrics.ObserveCacheLookup(string(ns), metrics.CacheError)
		log.Warn().Err(err).Str("namespace", string(ns)).Str("key", key).Msg("Cache generation read failed")
		return load()
	}

	var cached T
	hit, err := c.Get(ctx, ns, key, &cached)
	switch {
	case err != nil:
		metrics.ObserveCacheLookup(string(ns), metrics.CacheError)
		log.Warn().Err(err).Str("namespace", string(ns)).Str("key", key).Msg("Cache read failed")
	case hit:
		metrics.ObserveCacheLookup(string(ns), metrics.CacheHit)
		return cached, nil
	default:
		metrics.ObserveCacheLookup(string(ns), metrics.CacheMiss)
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	if err := c.Set(ctx, ns, key, value, gen); err != nil {
		log.Warn().Err(err).Str("namespace", string(ns)).Str("key", key).Msg("Cache write failed")
	}
	return value, nil
}

// invalidateAll drops every read namespace after a committed write
func invalidateAll(ctx context.Context, c cache.Cache, log zerolog.Logger) {
	metrics.ObserveCacheInvalidation()
	if err := c.Invalidate(ctx, cache.Namespaces...); err != nil {
		log.Error().Err(err).Msg("Cache invalidation failed")
	}
}

// cachedCommentService serves tree and page reads from the cache
type cachedCommentService struct {
	next  CommentService
	cache cache.Cache
	log   zerolog.Logger
}

func newCachedCommentService(next CommentService, c cache.Cache, log zerolog.Logger) *cachedCommentService {
	return &cachedCommentService{
		next:  next,
		cache: c,
		log:   log.With().Str("service", "comment-cache").Logger(),
	}
}

func (s *cachedCommentService) GetComment(ctx context.Context, id int) (*models.CommentReply, error) {
	return s.next.GetComment(ctx, id)
}

func (s *cachedCommentService) GetCommentTree(ctx context.Context, parentID, maxDepth int) (models.NestedCommentReply, error) {
	return readThrough(ctx, s.cache, s.log, cache.NamespaceFullTree, cache.Key(parentID, maxDepth),
		func() (models.NestedCommentReply, error) {
			return s.next.GetCommentTree(ctx, parentID, maxDepth)
		})
}

func (s *cachedCommentService) GetCommentsAtLevel(ctx context.Context, parentID, pageNo, pageSize int) (models.NestedCommentReply, error) {
	return readThrough(ctx, s.cache, s.log, cache.NamespaceNextLevel, cache.Key(parentID, pageNo, pageSize),
		func() (models.NestedCommentReply, error) {
			return s.next.GetCommentsAtLevel(ctx, parentID, pageNo, pageSize)
		})
}

func (s *cachedCommentService) PostComment(ctx context.Context, req *models.CommentPostRequest) (*models.CommentReply, error) {
	reply, err := s.next.PostComment(ctx, req)
	if err == nil {
		invalidateAll(ctx, s.cache, s.log)
	}
	return reply, err
}

func (s *cachedCommentService) EditComment(ctx context.Context, req *models.CommentPutRequest) (*models.CommentReply, error) {
	reply, err := s.next.EditComment(ctx, req)
	if err == nil {
		invalidateAll(ctx, s.cache, s.log)
	}
	return reply, err
}

func (s *cachedCommentService) DeleteComment(ctx context.Context, id int, user string) (*models.CommentReply, error) {
	reply, err := s.next.DeleteComment(ctx, id, user)
	if err == nil {
		invalidateAll(ctx, s.cache, s.log)
	}
	return reply, err
}

// cachedReactionService serves reacting-user pages from the cache
type cachedReactionService struct {
	next  ReactionService
	cache cache.Cache
	log   zerolog.Logger
}

func newCachedReactionService(next ReactionService, c cache.Cache, log zerolog.Logger) *cachedReactionService {
	return &cachedReactionService{
		next:  next,
		cache: c,
		log:   log.With().Str("service", "reaction-cache").Logger(),
	}
}

func (s *cachedReactionService) GetReactionUsers(ctx context.Context, commentID int, reactionType models.ReactionType, pageNo, pageSize int) (*models.ReactionReply, error) {
	key := cache.Key(commentID, normalizeType(reactionType), pageNo, pageSize)
	return readThrough(ctx, s.cache, s.log, cache.NamespaceUsers, key,
		func() (*models.ReactionReply, error) {
			return s.next.GetReactionUsers(ctx, commentID, reactionType, pageNo, pageSize)
		})
}

func (s *cachedReactionService) PostReaction(ctx context.Context, req *models.ReactionRequest) (*models.ReactionReply, error) {
	reply, err := s.next.PostReaction(ctx, req)
	if err == nil {
		invalidateAll(ctx, s.cache, s.log)
	}
	return reply, err
}

func (s *cachedReactionService) UpdateReaction(ctx context.Context, req *models.ReactionRequest) (*models.ReactionReply, error) {
	reply, err := s.next.UpdateReaction(ctx, req)
	if err == nil {
		invalidateAll(ctx, s.cache, s.log)
	}
	return reply, err
}

func (s *cachedReactionService) DeleteReaction(ctx context.Context, commentID int, user string) (*models.ReactionReply, error) {
	reply, err := s.next.DeleteReaction(ctx, commentID, user)
	if err == nil {
		invalidateAll(ctx, s.cache, s.log)
	}
	return reply, err
}

func normalizeType(t models.ReactionType) models.ReactionType {
	if parsed, ok := models.ParseReactionType(string(t)); ok {
		return parsed
	}
	return t
}
