package client

import (
	"context"
	"sync"
)

// PostStore caches what a blog UI shows: the current page of posts, the
// open post, categories and paging. Each call records its error so callers
// can render it later; concurrent updates are last-write-wins.
type PostStore struct {
	client *Client

	mu         sync.RWMutex
	posts      []Post
	current    *Post
	categories []Category
	pagination Pagination
	loading    bool
	err        error
}

func NewPostStore(c *Client) *PostStore {
	return &PostStore{client: c, pagination: DefaultPagination}
}

// FetchPosts replaces the list with the requested page.
func (s *PostStore) FetchPosts(ctx context.Context, page, limit int, category, search string) error {
	s.begin()
	posts, pg, err := s.client.ListPosts(ctx, ListParams{Page: page, Limit: limit, Category: category, Search: search})
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finish(err) {
		s.posts, s.pagination = posts, pg
	}
	return err
}

func (s *PostStore) FetchPost(ctx context.Context, idOrSlug string) (*Post, error) {
	s.begin()
	p, err := s.client.GetPost(ctx, idOrSlug)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finish(err) {
		s.current = p
	}
	return p, err
}

// CreatePost prepends the new post to the list.
func (s *PostStore) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	s.begin()
	p, err := s.client.CreatePost(ctx, in)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finish(err) {
		s.posts = append([]Post{*p}, s.posts...)
	}
	return p, err
}

// UpdatePost swaps the listed copy and makes the result current.
func (s *PostStore) UpdatePost(ctx context.Context, id string, in PostInput) (*Post, error) {
	s.begin()
	p, err := s.client.UpdatePost(ctx, id, in)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finish(err) {
		for i := range s.posts {
			if s.posts[i].ID == p.ID {
				s.posts[i] = *p
			}
		}
		s.current = p
	}
	return p, err
}

func (s *PostStore) DeletePost(ctx context.Context, id string) error {
	s.begin()
	err := s.client.DeletePost(ctx, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finish(err) {
		kept := s.posts[:0]
		for _, p := range s.posts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		s.posts = kept
		if s.current != nil && s.current.ID == id {
			s.current = nil
		}
	}
	return err
}

// AddComment makes the returned post, with its new comment, current.
func (s *PostStore) AddComment(ctx context.Context, postID, content string) (*Post, error) {
	s.begin()
	p, err := s.client.AddComment(ctx, postID, content)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finish(err) {
		s.current = p
	}
	return p, err
}

func (s *PostStore) FetchCategories(ctx context.Context) error {
	s.begin()
	cats, err := s.client.ListCategories(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finish(err) {
		s.categories = cats
	}
	return err
}

func (s *PostStore) Posts() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Post(nil), s.posts...)
}

func (s *PostStore) Current() *Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *PostStore) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Category(nil), s.categories...)
}

func (s *PostStore) Pagination() Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

func (s *PostStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err is the error of the most recent call, nil after a success.
func (s *PostStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *PostStore) begin() {
	s.mu.Lock()
	s.loading, s.err = true, nil
	s.mu.Unlock()
}

// finish must be called with mu held.
func (s *PostStore) finish(err error) bool {
	s.loading, s.err = false, err
	return err == nil
}
