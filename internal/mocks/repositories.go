package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/comment-tree-api/internal/commentpath"
	"github.com/comment-tree-api/internal/models"
	"github.com/comment-tree-api/internal/repository"
)

type reactionKey struct {
	commentID int
	user      string
}

type countKey struct {
	commentID    int
	reactionType models.ReactionType
}

// MockStore is an in-memory stand-in for the comments, reactions and
// reaction_counts tables shared by the mock repositories
type MockStore struct {
	mu        sync.Mutex
	nextID    int
	comments  map[int]*models.Comment
	reactions map[reactionKey]*models.Reaction
	counts    map[countKey]int64
	clock     func() time.Time

	Comment  *MockCommentRepository
	Reaction *MockReactionRepository
	Tx       *MockTxManager
}

// NewMockStore creates an empty store with its repositories
func NewMockStore() *MockStore {
	s := &MockStore{
		comments:  make(map[int]*models.Comment),
		reactions: make(map[reactionKey]*models.Reaction),
		counts:    make(map[countKey]int64),
	}
	// Strictly increasing timestamps keep "most recent first" orderings stable
	var tick int64
	s.clock = func() time.Time {
		tick++
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(tick) * time.Millisecond)
	}
	s.Comment = &MockCommentRepository{store: s}
	s.Reaction = &MockReactionRepository{store: s}
	s.Tx = &MockTxManager{store: s}
	return s
}

// Repositories exposes the store through the repository interfaces
func (s *MockStore) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Comment:  s.Comment,
		Reaction: s.Reaction,
		Tx:       s.Tx,
	}
}

// snapshot copies the table state for rollback
func (s *MockStore) snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextID := s.nextID
	comments := make(map[int]*models.Comment, len(s.comments))
	for id, c := range s.comments {
		cp := *c
		comments[id] = &cp
	}
	reactions := make(map[reactionKey]*models.Reaction, len(s.reactions))
	for k, r := range s.reactions {
		cp := *r
		reactions[k] = &cp
	}
	counts := make(map[countKey]int64, len(s.counts))
	for k, v := range s.counts {
		counts[k] = v
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.nextID, s.comments, s.reactions, s.counts = nextID, comments, reactions, counts
	}
}

// Count returns the counter value for a comment and reaction type
func (s *MockStore) Count(commentID int, t models.ReactionType) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[countKey{commentID, t}]
}

// LiveReactions counts stored reactions for a comment and reaction type
func (s *MockStore) LiveReactions(commentID int, t models.ReactionType) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, r := range s.reactions {
		if k.commentID == commentID && r.ReactionType == t {
			n++
		}
	}
	return n
}

// MockTxManager runs transactions one at a time and restores the store when
// fn fails
type MockTxManager struct {
	store *MockStore
	mu    sync.Mutex
	Calls int
	Err   error
}

var _ repository.TxManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	rollback := m.store.snapshot()
	if err := fn(ctx); err != nil {
		rollback()
		return err
	}
	return nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	store *MockStore

	FindError   error
	InsertError error
	QueryError  error
	QueryCalls  int
}

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func (m *MockCommentRepository) FindByID(ctx context.Context, id int) (*models.Comment, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	c, ok := m.store.comments[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *MockCommentRepository) FindByIDForUpdate(ctx context.Context, id int) (*models.Comment, error) {
	return m.FindByID(ctx, id)
}

func (m *MockCommentRepository) Insert(ctx context.Context, comment *models.Comment) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	m.store.nextID++
	comment.ID = m.store.nextID
	now := m.store.clock()
	comment.CreatedAt, comment.UpdatedAt = now, now

	cp := *comment
	m.store.comments[comment.ID] = &cp
	return nil
}

func (m *MockCommentRepository) PatchPath(ctx context.Context, id int, path string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	c, ok := m.store.comments[id]
	if !ok {
		return errors.New("comment not found")
	}
	c.Path = path
	return nil
}

func (m *MockCommentRepository) UpdateBody(ctx context.Context, comment *models.Comment) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	c, ok := m.store.comments[comment.ID]
	if !ok {
		return errors.New("comment not found")
	}
	c.Body = comment.Body
	c.IsDeleted = comment.IsDeleted
	c.UpdatedAt = m.store.clock()
	comment.UpdatedAt = c.UpdatedAt
	return nil
}

// reply projects a stored comment with its aggregates; caller holds the lock
func (m *MockCommentRepository) reply(c *models.Comment) models.CommentReply {
	r := *c.ToReply()
	for _, other := range m.store.comments {
		if commentpath.IsDescendant(other.Path, c.Path) {
			r.Replies++
		}
	}
	for _, t := range models.ReactionTypes {
		r.SetCount(t, m.store.counts[countKey{c.ID, t}])
	}
	return r
}

// matching returns comments under rootPath in byte order of path
func (m *MockCommentRepository) matching(rootPath string, keep func(*models.Comment) bool) []*models.Comment {
	var out []*models.Comment
	for _, c := range m.store.comments {
		if rootPath != "" && !commentpath.IsDescendant(c.Path, rootPath) {
			continue
		}
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (m *MockCommentRepository) Reply(ctx context.Context, id int) (*models.CommentReply, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	c, ok := m.store.comments[id]
	if !ok {
		return nil, nil
	}
	r := m.reply(c)
	return &r, nil
}

func (m *MockCommentRepository) Subtree(ctx context.Context, rootPath string, excludeID, maxLevel int) ([]models.CommentReply, error) {
	m.QueryCalls++
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	replies := make([]models.CommentReply, 0)
	for _, c := range m.matching(rootPath, func(c *models.Comment) bool {
		return c.ID != excludeID && c.Level <= maxLevel
	}) {
		replies = append(replies, m.reply(c))
	}
	return replies, nil
}

func (m *MockCommentRepository) LevelPage(ctx context.Context, rootPath string, targetLevel, offset, limit int) ([]models.CommentReply, error) {
	m.QueryCalls++
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	rows := m.matching(rootPath, func(c *models.Comment) bool { return c.Level == targetLevel })
	replies := make([]models.CommentReply, 0)
	for i := offset; i < len(rows) && i < offset+limit; i++ {
		replies = append(replies, m.reply(rows[i]))
	}
	return replies, nil
}

func (m *MockCommentRepository) StreamSubtree(ctx context.Context, rootPath string, callback func(*models.Comment) error) error {
	m.store.mu.Lock()
	rows := m.matching(rootPath, func(*models.Comment) bool { return true })
	copies := make([]models.Comment, len(rows))
	for i, c := range rows {
		copies[i] = *c
	}
	m.store.mu.Unlock()

	for i := range copies {
		if err := callback(&copies[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return len(m.store.comments), nil
}

// Seed stores a comment as is, keeping its id, path and level
func (m *MockCommentRepository) Seed(c models.Comment) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.store.clock()
		c.UpdatedAt = c.CreatedAt
	}
	m.store.comments[c.ID] = &c
	if c.ID > m.store.nextID {
		m.store.nextID = c.ID
	}
}

// MockReactionRepository is a mock implementation of ReactionRepository
type MockReactionRepository struct {
	store *MockStore

	IncrementError error
	IncrementCalls int
	DecrementCalls int
}

var _ repository.ReactionRepository = (*MockReactionRepository)(nil)

func (m *MockReactionRepository) FindForUpdate(ctx context.Context, commentID int, user string) (*models.Reaction, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	r, ok := m.store.reactions[reactionKey{commentID, user}]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MockReactionRepository) Insert(ctx context.Context, reaction *models.Reaction) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if _, ok := m.store.comments[reaction.CommentID]; !ok {
		return false, repository.ErrCommentMissing
	}
	key := reactionKey{reaction.CommentID, reaction.User}
	if _, exists := m.store.reactions[key]; exists {
		return false, nil
	}
	now := m.store.clock()
	reaction.CreatedAt, reaction.UpdatedAt = now, now
	cp := *reaction
	m.store.reactions[key] = &cp
	return true, nil
}

func (m *MockReactionRepository) UpdateType(ctx context.Context, reaction *models.Reaction) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	r, ok := m.store.reactions[reactionKey{reaction.CommentID, reaction.User}]
	if !ok {
		return errors.New("reaction not found")
	}
	r.ReactionType = reaction.ReactionType
	r.UpdatedAt = m.store.clock()
	reaction.CreatedAt, reaction.UpdatedAt = r.CreatedAt, r.UpdatedAt
	return nil
}

func (m *MockReactionRepository) Delete(ctx context.Context, commentID int, user string) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	key := reactionKey{commentID, user}
	if _, ok := m.store.reactions[key]; !ok {
		return false, nil
	}
	delete(m.store.reactions, key)
	return true, nil
}

func (m *MockReactionRepository) IncrementCount(ctx context.Context, commentID int, reactionType models.ReactionType) error {
	m.IncrementCalls++
	if m.IncrementError != nil {
		return m.IncrementError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.counts[countKey{commentID, reactionType}]++
	return nil
}

func (m *MockReactionRepository) DecrementCount(ctx context.Context, commentID int, reactionType models.ReactionType) error {
	m.DecrementCalls++
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	key := countKey{commentID, reactionType}
	if n, ok := m.store.counts[key]; ok && n > 0 {
		m.store.counts[key] = n - 1
	}
	return nil
}

func (m *MockReactionRepository) GetCount(ctx context.Context, commentID int, reactionType models.ReactionType) (int64, error) {
	return m.store.Count(commentID, reactionType), nil
}

func (m *MockReactionRepository) ListUsers(ctx context.Context, commentID int, reactionType models.ReactionType, offset, limit int) ([]string, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	var matched []*models.Reaction
	for k, r := range m.store.reactions {
		if k.commentID == commentID && r.ReactionType == reactionType {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].User < matched[j].User
	})

	users := make([]string, 0)
	for i := offset; i < len(matched) && i < offset+limit; i++ {
		users = append(users, matched[i].User)
	}
	return users, nil
}
