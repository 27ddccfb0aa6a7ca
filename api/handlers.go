package api

import (
	"context"
	"time"

	"github.com/xiaoyuanzhu-com/todo-api/models"
)

// TodoStore is the persistence the todo routes need. Both the SQL database
// and the in-memory store satisfy it.
type TodoStore interface {
	CreateTodo(ctx context.Context, req models.CreateTodoRequest) (models.Todo, error)
	ListTodos(ctx context.Context, offset, limit int) ([]models.Todo, error)
	DeleteTodo(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// HealthCheck is a named readiness check.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handlers holds the dependencies of the HTTP handlers
type Handlers struct {
	store        TodoStore
	healthChecks []HealthCheck
	startTime    time.Time
}

// NewHandlers creates a new Handlers instance. The store's Ping is always the
// first readiness check.
func NewHandlers(store TodoStore, checks ...HealthCheck) *Handlers {
	all := append([]HealthCheck{{Name: "database", Check: store.Ping}}, checks...)
	return &Handlers{
		store:        store,
		healthChecks: all,
		startTime:    time.Now(),
	}
}
