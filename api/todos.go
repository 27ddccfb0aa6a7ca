package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xiaoyuanzhu-com/todo-api/log"
	"github.com/xiaoyuanzhu-com/todo-api/models"
)

// CreateTodo handles POST /todos
func (h *Handlers) CreateTodo(c *gin.Context) {
	var req models.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationError(c, err)
		return
	}

	todo, err := h.store.CreateTodo(c.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("failed to create todo")
		_ = c.Error(err)
		RespondInternalError(c)
		return
	}

	c.JSON(http.StatusOK, todo)
}

// ListTodos handles GET /todos
func (h *Handlers) ListTodos(c *gin.Context) {
	var q models.ListTodosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondValidationError(c, err)
		return
	}

	todos, err := h.store.ListTodos(c.Request.Context(), q.Skip, q.Limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list todos")
		_ = c.Error(err)
		RespondInternalError(c)
		return
	}

	c.JSON(http.StatusOK, todos)
}

// DeleteTodo handles DELETE /todos/:id
func (h *Handlers) DeleteTodo(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondValidationError(c, errors.New("id must be an integer"))
		return
	}

	err = h.store.DeleteTodo(c.Request.Context(), id)
	if errors.Is(err, models.ErrTodoNotFound) {
		RespondNotFound(c, "Todo not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("failed to delete todo")
		_ = c.Error(err)
		RespondInternalError(c)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Deleted"})
}
