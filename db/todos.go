package db

import (
	"context"
	"fmt"

	"github.com/xiaoyuanzhu-com/todo-api/log"
	"github.com/xiaoyuanzhu-com/todo-api/models"
)

func (d *DB) logQuery(kind string, query string, params ...any) {
	if !d.logQueries {
		return
	}
	log.Debug().
		Str("kind", kind).
		Str("sql", query).
		Interface("params", params).
		Msg("db query")
}

// CreateTodo inserts a todo and returns it with its assigned ID.
func (d *DB) CreateTodo(ctx context.Context, req models.CreateTodoRequest) (models.Todo, error) {
	todo := models.Todo{Title: req.Title, IsCompleted: req.IsCompleted}

	if d.dialect == DialectPostgres {
		query := d.dialect.Rebind("INSERT INTO todos (title, is_completed) VALUES (?, ?) RETURNING id")
		d.logQuery("get", query, todo.Title, todo.IsCompleted)
		if err := d.conn.QueryRowContext(ctx, query, todo.Title, todo.IsCompleted).Scan(&todo.ID); err != nil {
			return models.Todo{}, fmt.Errorf("failed to insert todo: %w", err)
		}
		return todo, nil
	}

	query := "INSERT INTO todos (title, is_completed) VALUES (?, ?)"
	d.logQuery("run", query, todo.Title, todo.IsCompleted)
	result, err := d.conn.ExecContext(ctx, query, todo.Title, todo.IsCompleted)
	if err != nil {
		return models.Todo{}, fmt.Errorf("failed to insert todo: %w", err)
	}
	todo.ID, err = result.LastInsertId()
	if err != nil {
		return models.Todo{}, fmt.Errorf("failed to read todo id: %w", err)
	}
	return todo, nil
}

// ListTodos returns up to limit todos ordered by ID, skipping the first offset.
func (d *DB) ListTodos(ctx context.Context, offset, limit int) ([]models.Todo, error) {
	query := d.dialect.Rebind("SELECT id, title, is_completed FROM todos ORDER BY id LIMIT ? OFFSET ?")
	d.logQuery("select", query, limit, offset)

	rows, err := d.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.IsCompleted); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// DeleteTodo removes the todo with the given ID. It returns
// models.ErrTodoNotFound when there is none.
func (d *DB) DeleteTodo(ctx context.Context, id int64) error {
	query := d.dialect.Rebind("DELETE FROM todos WHERE id = ?")
	d.logQuery("run", query, id)

	result, err := d.conn.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}
	if affected == 0 {
		return models.ErrTodoNotFound
	}
	return nil
}
