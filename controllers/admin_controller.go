package controllers

import (
	"net/http"
	"strconv"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/taskreward_backend/middleware"
	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/services"
	"github.com/HSouheill/taskreward_backend/websocket"
)

// AdminController handles the review queues and user management
type AdminController struct {
	admin    *services.AdminService
	tasks    *services.TaskService
	wallet   *services.WalletService
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
}

func NewAdminController(admin *services.AdminService, tasks *services.TaskService, wallet *services.WalletService, hub *websocket.Hub, upgrader gorillaws.Upgrader) *AdminController {
	return &AdminController{
		admin:    admin,
		tasks:    tasks,
		wallet:   wallet,
		hub:      hub,
		upgrader: upgrader,
	}
}

// Console returns every pending queue plus the newest tasks
func (ac *AdminController) Console(c echo.Context) error {
	console, err := ac.admin.Console(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to load admin console")
	}
	return respond(c, http.StatusOK, "Admin console retrieved successfully", console)
}

// ConsoleAction dispatches the console form on which submit button was used
func (ac *AdminController) ConsoleAction(c echo.Context) error {
	params, err := c.FormParams()
	if err != nil {
		return badRequest(c, "Invalid form data")
	}

	switch {
	case params.Has("create_task"):
		return ac.CreateTask(c)
	case params.Has("update_balance"):
		return ac.UpdateBalance(c)
	case params.Has("update_system_notice"):
		return ac.UpdateSystemNotice(c)
	case params.Has("publish_notice"):
		return ac.PublishNotice(c)
	}
	return badRequest(c, "Unknown admin action")
}

func (ac *AdminController) CreateTask(c echo.Context) error {
	var req models.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return invalidRequest(c, err)
	}
	task, err := ac.tasks.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Failed to create task")
	}
	return respond(c, http.StatusCreated, "New Task Published!", task)
}

func (ac *AdminController) DeleteTask(c echo.Context) error {
	if err := ac.tasks.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err, "Failed to delete task")
	}
	return respond(c, http.StatusOK, "Task deleted", nil)
}

func (ac *AdminController) UpdateBalance(c echo.Context) error {
	var form models.BalanceUpdateForm
	if err := bindAndValidate(c, &form); err != nil {
		return invalidRequest(c, err)
	}
	entry, err := ac.wallet.AdjustBalance(c.Request().Context(), form)
	if err != nil {
		return respondError(c, err, "Failed to update balance")
	}
	return respond(c, http.StatusOK, "User balance updated.", entry)
}

func (ac *AdminController) UpdateSystemNotice(c echo.Context) error {
	notice, err := ac.admin.UpdateSystemNotice(c.Request().Context(), c.FormValue("notice_text"), c.FormValue("notice_link"))
	if err != nil {
		return respondError(c, err, "Failed to update system notice")
	}
	return respond(c, http.StatusOK, "System Notice Updated on Dashboard!", notice)
}

func (ac *AdminController) PublishNotice(c echo.Context) error {
	var form models.NoticeForm
	if err := bindAndValidate(c, &form); err != nil {
		return invalidRequest(c, err)
	}
	notice, err := ac.admin.PublishNotice(c.Request().Context(), form)
	if err != nil {
		return respondError(c, err, "Failed to publish notice")
	}
	return respond(c, http.StatusCreated, "Notice Published Successfully!", notice)
}

func (ac *AdminController) ApproveTask(c echo.Context) error {
	entry, err := ac.tasks.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to approve task")
	}
	return respond(c, http.StatusOK, "Task Approved & Balance Added!", entry)
}

func (ac *AdminController) RejectTask(c echo.Context) error {
	if err := ac.tasks.Reject(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err, "Failed to reject task")
	}
	return respond(c, http.StatusOK, "Task Rejected.", nil)
}

// BulkApprove approves every selected submission independently
func (ac *AdminController) BulkApprove(c echo.Context) error {
	params, err := c.FormParams()
	if err != nil {
		return badRequest(c, "Invalid form data")
	}
	ids := params["selected_ids[]"]
	if len(ids) == 0 {
		ids = params["selected_ids"]
	}

	result, err := ac.tasks.BulkApprove(c.Request().Context(), ids)
	if err != nil {
		return respondError(c, err, "Failed to approve tasks")
	}
	return respond(c, http.StatusOK, "Successfully Approved "+strconv.Itoa(result.Approved)+" Tasks!", result)
}

func (ac *AdminController) ApproveWithdraw(c echo.Context) error {
	req, err := ac.wallet.Resolve(c.Request().Context(), c.Param("id"), models.WithdrawPaid)
	if err != nil {
		return respondError(c, err, "Failed to approve withdrawal")
	}
	return respond(c, http.StatusOK, "Withdrawal marked as paid.", req)
}

func (ac *AdminController) RejectWithdraw(c echo.Context) error {
	req, err := ac.wallet.Resolve(c.Request().Context(), c.Param("id"), models.WithdrawRejected)
	if err != nil {
		return respondError(c, err, "Failed to reject withdrawal")
	}
	return respond(c, http.StatusOK, "Withdrawal rejected and amount refunded.", req)
}

func (ac *AdminController) ApproveActivation(c echo.Context) error {
	req, err := ac.wallet.ApproveActivation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to approve activation")
	}
	return respond(c, http.StatusOK, "Account activated.", req)
}

// Users lists users newest first, twenty per page
func (ac *AdminController) Users(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	result, err := ac.admin.Users(c.Request().Context(), page)
	if err != nil {
		return respondError(c, err, "Failed to load users")
	}
	return respond(c, http.StatusOK, "Users retrieved successfully", result)
}

func (ac *AdminController) BanUser(c echo.Context) error {
	if err := ac.admin.SetBanned(c.Request().Context(), c.Param("uid"), true); err != nil {
		return respondError(c, err, "Failed to ban user")
	}
	return respond(c, http.StatusOK, "User has been banned.", nil)
}

func (ac *AdminController) UnbanUser(c echo.Context) error {
	if err := ac.admin.SetBanned(c.Request().Context(), c.Param("uid"), false); err != nil {
		return respondError(c, err, "Failed to unban user")
	}
	return respond(c, http.StatusOK, "User has been unbanned.", nil)
}

func (ac *AdminController) DeleteUser(c echo.Context) error {
	if err := ac.admin.DeleteUser(c.Request().Context(), c.Param("uid")); err != nil {
		return respondError(c, err, "Failed to delete user")
	}
	return respond(c, http.StatusOK, "User deleted permanently.", nil)
}

// LedgerAudit compares a user's balance with their balance history
func (ac *AdminController) LedgerAudit(c echo.Context) error {
	audit, err := ac.wallet.Audit(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return respondError(c, err, "Failed to audit ledger")
	}
	return respond(c, http.StatusOK, "Ledger audit complete", audit)
}

// LiveFeed upgrades to a websocket that streams new submissions and requests
func (ac *AdminController) LiveFeed(c echo.Context) error {
	return websocket.HandleWebSocket(c, ac.hub, ac.upgrader, middleware.GetUserID(c))
}
