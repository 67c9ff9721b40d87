package httpapi

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"timeclock/internal/apperr"
	"timeclock/internal/attendance"
	"timeclock/internal/auth"
	"timeclock/internal/config"
	"timeclock/internal/editreq"
	"timeclock/internal/employee"
	"timeclock/internal/notify"
)

// AttendanceService is the check-in/check-out surface the handlers
// drive.
type AttendanceService interface {
	CheckIn(ctx context.Context, identifier, location string) (attendance.CheckInResult, error)
	CheckOut(ctx context.Context, identifier string) (attendance.CheckOutResult, error)
	Today(ctx context.Context, identifier string) (attendance.TodayStatus, error)
	Month(ctx context.Context, identifier string, month, year int) ([]attendance.Record, error)
}

// EditRequests is the correction-workflow surface.
type EditRequests interface {
	Submit(ctx context.Context, employeeID, recordID, requestedIn, requestedOut, reason string) (editreq.Request, error)
	Approve(ctx context.Context, id, reviewerID string) (editreq.Request, error)
	Reject(ctx context.Context, id, reviewerID, reason string) (editreq.Request, error)
	List(ctx context.Context, status string) ([]editreq.Request, error)
}

// Directory is the employee read surface the handlers need.
type Directory interface {
	ListActive(ctx context.Context) ([]employee.Employee, error)
	GetByEmail(ctx context.Context, email string) (*employee.Employee, error)
}

// Handler owns the HTTP routes.
type Handler struct {
	att    AttendanceService
	edits  EditRequests
	dir    Directory
	hub    *notify.Hub
	tokens *auth.TokenStore
	cfg    config.App
}

// New wires the handler.
func New(att AttendanceService, edits EditRequests, dir Directory, hub *notify.Hub, tokens *auth.TokenStore, cfg config.App) *Handler {
	return &Handler{att: att, edits: edits, dir: dir, hub: hub, tokens: tokens, cfg: cfg}
}

// Register mounts all routes on r.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/attendance/checkin", h.CheckIn)
	r.POST("/attendance/checkout", h.CheckOut)
	r.GET("/attendance/today/:employeeId", h.Today)
	r.GET("/attendance/employee/:empId/:month/:year", h.Month)
	r.GET("/attendance/stream", h.Stream)
	r.GET("/employees", h.ListEmployees)

	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)

	authed := r.Group("/attendance/edit-requests", auth.RequireAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	authed.POST("", h.SubmitEditRequest)

	admin := authed.Group("", auth.RequireRole(employee.RoleAdmin))
	admin.GET("", h.ListEditRequests)
	admin.POST("/:id/approve", h.ApproveEditRequest)
	admin.POST("/:id/reject", h.RejectEditRequest)
}

type checkInRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Location   string `json:"location"`
}

// CheckIn handles POST /attendance/checkin.
func (h *Handler) CheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": string(apperr.InvalidInput)})
		return
	}
	res, err := h.att.CheckIn(c.Request.Context(), req.EmployeeID, req.Location)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"record":       res.Record,
		"employeeName": res.Employee.Name,
		"department":   res.Employee.Department,
	})
}

type checkOutRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
}

// CheckOut handles POST /attendance/checkout.
func (h *Handler) CheckOut(c *gin.Context) {
	var req checkOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": string(apperr.InvalidInput)})
		return
	}
	res, err := h.att.CheckOut(c.Request.Context(), req.EmployeeID)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"record":       res.Record,
		"hoursWorked":  res.HoursWorked,
		"employeeName": res.Employee.Name,
		"department":   res.Employee.Department,
	})
}

// Today handles GET /attendance/today/:employeeId.
func (h *Handler) Today(c *gin.Context) {
	st, err := h.att.Today(c.Request.Context(), c.Param("employeeId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Month handles GET /attendance/employee/:empId/:month/:year.
func (h *Handler) Month(c *gin.Context) {
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be a number", "kind": string(apperr.InvalidInput)})
		return
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number", "kind": string(apperr.InvalidInput)})
		return
	}
	recs, err := h.att.Month(c.Request.Context(), c.Param("empId"), month, year)
	if err != nil {
		writeError(c, err)
		return
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}

// Stream handles GET /attendance/stream: an SSE feed of realtime
// events. Every observer gets every event; filtering is client-side.
func (h *Handler) Stream(c *gin.Context) {
	ch, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		// Drain anything already handed to this observer before
		// honoring shutdown, so accepted events are not dropped.
		select {
		case env, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(env.Event, string(env.Data))
			return true
		default:
		}
		select {
		case env, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(env.Event, string(env.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// ListEmployees handles GET /employees.
func (h *Handler) ListEmployees(c *gin.Context) {
	emps, err := h.dir.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if emps == nil {
		emps = []employee.Employee{}
	}
	c.JSON(http.StatusOK, gin.H{"employees": emps})
}

type loginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Login handles POST /auth/login: demo-grade session issuance by
// email.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	emp, err := h.dir.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	if emp == nil || !emp.Active {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown email"})
		return
	}

	pair, err := auth.Issue(emp.ID, emp.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	if err := h.tokens.Save(c.Request.Context(), emp.ID, pair.RefreshToken, pair.RefreshExp); err != nil {
		log.Printf("httpapi: save refresh token failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.AccessExp.Unix(),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh handles POST /auth/refresh with rotation: the presented
// token is revoked and a fresh pair is issued.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, err := auth.Parse(req.RefreshToken, h.cfg.JWTSigningKey, h.cfg.JWTIssuer, auth.TokenRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	subject, err := h.tokens.Redeem(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token revoked or expired"})
		return
	}

	pair, err := auth.Issue(subject, claims.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	if err := h.tokens.Save(c.Request.Context(), subject, pair.RefreshToken, pair.RefreshExp); err != nil {
		log.Printf("httpapi: save refresh token failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.AccessExp.Unix(),
	})
}

type submitEditRequest struct {
	RecordID     string `json:"recordId" binding:"required"`
	RequestedIn  string `json:"requestedIn"`
	RequestedOut string `json:"requestedOut"`
	Reason       string `json:"reason" binding:"required"`
}

// SubmitEditRequest handles POST /attendance/edit-requests. The
// submitting employee comes from the bearer token, not the body.
func (h *Handler) SubmitEditRequest(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	var req submitEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.edits.Submit(c.Request.Context(), claims.Subject, req.RecordID, req.RequestedIn, req.RequestedOut, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// ListEditRequests handles GET /attendance/edit-requests?status=.
func (h *Handler) ListEditRequests(c *gin.Context) {
	reqs, err := h.edits.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	if reqs == nil {
		reqs = []editreq.Request{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// ApproveEditRequest handles POST /attendance/edit-requests/:id/approve.
func (h *Handler) ApproveEditRequest(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	out, err := h.edits.Approve(c.Request.Context(), c.Param("id"), claims.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type rejectEditRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectEditRequest handles POST /attendance/edit-requests/:id/reject.
func (h *Handler) RejectEditRequest(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	var req rejectEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.edits.Reject(c.Request.Context(), c.Param("id"), claims.Subject, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// writeMutationError maps errors on the check-in/check-out paths:
// everything the caller can fix is a 400 with a machine-readable kind
// and code, store trouble is a 503.
func writeMutationError(c *gin.Context, err error) {
	body := gin.H{
		"error": err.Error(),
		"kind":  string(apperr.KindOf(err)),
		"code":  apperr.CodeOf(err),
	}
	switch apperr.KindOf(err) {
	case apperr.InvalidInput, apperr.NotFound, apperr.Conflict:
		c.JSON(http.StatusBadRequest, body)
	case apperr.Transient:
		c.JSON(http.StatusServiceUnavailable, body)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// writeError is the mapping for non-core endpoints, where NotFound is
// a 404 and Conflict a 409.
func writeError(c *gin.Context, err error) {
	body := gin.H{
		"error": err.Error(),
		"kind":  string(apperr.KindOf(err)),
		"code":  apperr.CodeOf(err),
	}
	switch apperr.KindOf(err) {
	case apperr.InvalidInput:
		c.JSON(http.StatusBadRequest, body)
	case apperr.NotFound:
		c.JSON(http.StatusNotFound, body)
	case apperr.Conflict:
		c.JSON(http.StatusConflict, body)
	case apperr.Transient:
		c.JSON(http.StatusServiceUnavailable, body)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
