package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaoyuanzhu-com/todo-api/models"
)

// newTestDB returns a migrated in-memory SQLite database.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a fresh database
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	d := New(conn, DialectSQLite)
	require.NoError(t, d.Migrate(context.Background()))
	return d
}

func TestCreateTodo(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	first, err := d.CreateTodo(ctx, models.CreateTodoRequest{Title: "buy milk"})
	require.NoError(t, err)
	second, err := d.CreateTodo(ctx, models.CreateTodoRequest{Title: "walk dog", IsCompleted: true})
	require.NoError(t, err)

	assert.Equal(t, models.Todo{ID: 1, Title: "buy milk"}, first)
	assert.Equal(t, models.Todo{ID: 2, Title: "walk dog", IsCompleted: true}, second)
}

func TestListTodos(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	empty, err := d.ListTodos(ctx, 0, 100)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, title := range []string{"a", "b", "c", "d"} {
		_, err := d.CreateTodo(ctx, models.CreateTodoRequest{Title: title, IsCompleted: title == "c"})
		require.NoError(t, err)
	}

	all, err := d.ListTodos(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "a", all[0].Title)
	assert.True(t, all[2].IsCompleted)
	assert.False(t, all[3].IsCompleted)

	page, err := d.ListTodos(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, []string{"b", "c"}, []string{page[0].Title, page[1].Title})

	none, err := d.ListTodos(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	past, err := d.ListTodos(ctx, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestDeleteTodo(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	todo, err := d.CreateTodo(ctx, models.CreateTodoRequest{Title: "temp"})
	require.NoError(t, err)

	require.NoError(t, d.DeleteTodo(ctx, todo.ID))
	assert.ErrorIs(t, d.DeleteTodo(ctx, todo.ID), models.ErrTodoNotFound)
	assert.ErrorIs(t, d.DeleteTodo(ctx, 999), models.ErrTodoNotFound)

	remaining, err := d.ListTodos(ctx, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeletedIDsAreNotReused(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	first, err := d.CreateTodo(ctx, models.CreateTodoRequest{Title: "one"})
	require.NoError(t, err)
	require.NoError(t, d.DeleteTodo(ctx, first.ID))

	second, err := d.CreateTodo(ctx, models.CreateTodoRequest{Title: "two"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestPing(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.Ping(context.Background()))

	require.NoError(t, d.Close())
	assert.Error(t, d.Ping(context.Background()))
}
