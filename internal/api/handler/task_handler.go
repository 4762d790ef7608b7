package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/storefront-api/internal/core/ports"
)

// TaskHandler serves /tasks. Ownership is decided by the task service from
// the caller's ability, so every method needs the principal.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// @Summary      List tasks
// @Description  Returns the caller's tasks, or every task for principals allowed to read all of them.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Task
// @Failure      401  {object}  errorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	_, ability, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	tasks, err := h.service.List(c.Request().Context(), ability)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// @Summary      Get task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	_, ability, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	task, err := h.service.Get(c.Request().Context(), ability, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  domain.Task
// @Failure      400   {object}  errorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	p, _, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	task, err := h.service.Create(c.Request().Context(), ports.TaskInput{
		Description: &req.Description,
		IsDone:      &req.IsDone,
	}, p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// @Summary      Update task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Task id"
// @Param        body  body      taskRequest  true  "Fields to change"
// @Success      200   {object}  domain.Task
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	_, ability, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req taskRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	task, err := h.service.Update(c.Request().Context(), ability, c.Param("id"), ports.TaskInput{
		Description: req.Description,
		IsDone:      req.IsDone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// @Summary      Delete task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id   path  string  true  "Task id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	_, ability, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), ability, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
