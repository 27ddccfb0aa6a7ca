package models

import "errors"

// MaxTitleLength is the width of the todos.title column.
const MaxTitleLength = 100

// ErrTodoNotFound is returned by stores when no todo has the requested ID.
var ErrTodoNotFound = errors.New("todo not found")

// Todo is a single to-do item.
type Todo struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

// CreateTodoRequest is the body accepted by POST /todos.
type CreateTodoRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	IsCompleted bool   `json:"is_completed"`
}

// ListTodosQuery holds the pagination parameters of GET /todos.
type ListTodosQuery struct {
	Skip  int `form:"skip,default=0" binding:"min=0"`
	Limit int `form:"limit,default=100" binding:"min=0"`
}
