// Package memory keeps todos in a process-lifetime list. Nothing survives a
// restart.
package memory

import (
	"context"
	"sync"

	"github.com/xiaoyuanzhu-com/todo-api/models"
)

// Store is an in-memory todo store safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	todos  []models.Todo
	nextID int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// CreateTodo appends a todo and assigns the next ID.
func (s *Store) CreateTodo(_ context.Context, req models.CreateTodoRequest) (models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := models.Todo{ID: s.nextID, Title: req.Title, IsCompleted: req.IsCompleted}
	s.nextID++
	s.todos = append(s.todos, t)
	return t, nil
}

// ListTodos returns up to limit todos in insertion order after skipping offset.
func (s *Store) ListTodos(_ context.Context, offset, limit int) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Todo{}
	if offset < 0 || limit <= 0 || offset >= len(s.todos) {
		return out, nil
	}
	end := offset + min(limit, len(s.todos)-offset)
	return append(out, s.todos[offset:end]...), nil
}

// DeleteTodo removes the todo with the given ID.
func (s *Store) DeleteTodo(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.todos {
		if t.ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			return nil
		}
	}
	return models.ErrTodoNotFound
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close is a no-op; it exists so Store can stand in for a database.
func (s *Store) Close() error {
	return nil
}
