package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gatherly/eventkeeper/pkg/lifecycle"
)

// MemoryStorage implements Store with in-memory maps.
// This implementation is intended for testing and local runs only.
type MemoryStorage struct {
	mu     sync.RWMutex
	events map[string]lifecycle.EventSnapshot
	posts  map[string]lifecycle.WallPostSnapshot
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		events: make(map[string]lifecycle.EventSnapshot),
		posts:  make(map[string]lifecycle.WallPostSnapshot),
	}
}

// SaveEvent stores a copy of e.
func (s *MemoryStorage) SaveEvent(ctx context.Context, e lifecycle.EventSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[e.ID] = cloneEvent(e)
	return nil
}

// GetEvent returns a copy of the stored event.
func (s *MemoryStorage) GetEvent(ctx context.Context, id string) (lifecycle.EventSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return lifecycle.EventSnapshot{}, ErrNotFound
	}
	return cloneEvent(e), nil
}

// ListEvents returns copies of all events ordered by creation time, then id.
func (s *MemoryStorage) ListEvents(ctx context.Context) ([]lifecycle.EventSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]lifecycle.EventSnapshot, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, cloneEvent(e))
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// SaveWallPost stores a wall post of an existing event.
func (s *MemoryStorage) SaveWallPost(ctx context.Context, p lifecycle.WallPostSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[p.EventID]; !ok {
		return ErrNotFound
	}
	s.posts[p.ID] = p
	return nil
}

// ListWallPosts returns the posts of an event ordered by creation time, then id.
func (s *MemoryStorage) ListWallPosts(ctx context.Context, eventID string) ([]lifecycle.WallPostSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var posts []lifecycle.WallPostSnapshot
	for _, p := range s.posts {
		if p.EventID == eventID {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts, nil
}

// update applies fn to the stored event under the write lock and stores the
// result if fn returns true.
func (s *MemoryStorage) update(id string, fn func(e *lifecycle.EventSnapshot) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return false, ErrNotFound
	}
	if !fn(&e) {
		return false, nil
	}
	s.events[id] = e
	return true, nil
}

// conditional is update for conditional writes: a missing event is reported
// as "no row changed", matching the SQL backends.
func (s *MemoryStorage) conditional(id string, fn func(e *lifecycle.EventSnapshot) bool) (bool, error) {
	changed, err := s.update(id, fn)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return changed, err
}

// MarkCompleted persists the completed state.
func (s *MemoryStorage) MarkCompleted(ctx context.Context, id string) (bool, error) {
	return s.conditional(id, func(e *lifecycle.EventSnapshot) bool {
		switch e.StoredState {
		case lifecycle.StatePublished, lifecycle.StateClosed, lifecycle.StateOngoing:
			e.StoredState = lifecycle.StateCompleted
			return true
		}
		return false
	})
}

// MarkNotified claims the retention notification.
func (s *MemoryStorage) MarkNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	return s.conditional(id, func(e *lifecycle.EventSnapshot) bool {
		if e.RetentionNotificationSent || e.ArchivedAt != nil {
			return false
		}
		e.RetentionNotificationSent = true
		e.RetentionNotificationSentAt = &at
		return true
	})
}

// ReleaseNotification undoes a claim made at exactly at.
func (s *MemoryStorage) ReleaseNotification(ctx context.Context, id string, at time.Time) (bool, error) {
	return s.conditional(id, func(e *lifecycle.EventSnapshot) bool {
		if !e.RetentionNotificationSent || e.RetentionNotificationSentAt == nil ||
			!e.RetentionNotificationSentAt.Equal(at) {
			return false
		}
		e.RetentionNotificationSent = false
		e.RetentionNotificationSentAt = nil
		return true
	})
}

// Archive sets archived_at once.
func (s *MemoryStorage) Archive(ctx context.Context, id string, at time.Time) (bool, error) {
	return s.conditional(id, func(e *lifecycle.EventSnapshot) bool {
		if e.ArchivedAt != nil {
			return false
		}
		e.ArchivedAt = &at
		return true
	})
}

// ScheduleDeletion sets scheduled_for_deletion_at.
func (s *MemoryStorage) ScheduleDeletion(ctx context.Context, id string, at time.Time) error {
	_, err := s.update(id, func(e *lifecycle.EventSnapshot) bool {
		e.ScheduledForDeletionAt = &at
		return true
	})
	return err
}

// CancelScheduledDeletion clears scheduled_for_deletion_at.
func (s *MemoryStorage) CancelScheduledDeletion(ctx context.Context, id string) error {
	_, err := s.update(id, func(e *lifecycle.EventSnapshot) bool {
		e.ScheduledForDeletionAt = nil
		return true
	})
	return err
}

// UpdateRetentionSettings applies settings to the stored event.
func (s *MemoryStorage) UpdateRetentionSettings(ctx context.Context, id string, settings lifecycle.RetentionSettings) (lifecycle.EventSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return lifecycle.EventSnapshot{}, ErrNotFound
	}
	e = lifecycle.ApplyRetentionSettings(e, settings)
	s.events[id] = e
	return cloneEvent(e), nil
}

// DeleteWallPosts deletes the listed posts that belong to eventID.
func (s *MemoryStorage) DeleteWallPosts(ctx context.Context, eventID string, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if p, ok := s.posts[id]; ok && p.EventID == eventID {
			delete(s.posts, id)
			deleted++
		}
	}
	return deleted, nil
}

// PermanentlyDelete removes the event and its wall posts.
func (s *MemoryStorage) PermanentlyDelete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return false, nil
	}
	delete(s.events, id)
	for postID, p := range s.posts {
		if p.EventID == id {
			delete(s.posts, postID)
		}
	}
	return true, nil
}

// Ping always succeeds.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

// Count returns the number of stored events.
func (s *MemoryStorage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
