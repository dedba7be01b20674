package controllers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/taskreward_backend/middleware"
	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/services"
	"github.com/HSouheill/taskreward_backend/utils"
)

type TaskController struct {
	tasks *services.TaskService
}

func NewTaskController(tasks *services.TaskService) *TaskController {
	return &TaskController{tasks: tasks}
}

// ListTasks returns the open tasks the user has not submitted yet
func (tc *TaskController) ListTasks(c echo.Context) error {
	tasks, err := tc.tasks.ListOpenTasks(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err, "Failed to load tasks")
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return respond(c, http.StatusOK, "Tasks retrieved successfully", tasks)
}

// SubmitTask accepts a proof image or proof text for one task
func (tc *TaskController) SubmitTask(c echo.Context) error {
	taskID := c.FormValue("task_id")
	if taskID == "" {
		return badRequest(c, "Task ID is required")
	}

	var proof *services.ProofImage
	if file, err := c.FormFile("image"); err == nil && file.Size > 0 {
		if err := utils.ValidateImageUpload(file); err != nil {
			return badRequest(c, err.Error())
		}
		src, err := file.Open()
		if err != nil {
			return badRequest(c, "Failed to read uploaded file")
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return badRequest(c, "Failed to read uploaded file")
		}
		proof = &services.ProofImage{Filename: file.Filename, Data: data}
	}

	sub, err := tc.tasks.Submit(c.Request().Context(),
		middleware.GetUserID(c), middleware.GetEmail(c), taskID, proof, c.FormValue("proof_text"))
	if err != nil {
		return respondError(c, err, "Failed to submit task")
	}

	return respond(c, http.StatusCreated, "Task submitted! Waiting for admin approval.", sub)
}
