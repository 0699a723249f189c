package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/venue-booking/internal/domain"
	"github.com/you/venue-booking/internal/session"
)

type SessionHandler struct {
	mgr *session.Manager
}

func NewSessionHandler(mgr *session.Manager) *SessionHandler {
	return &SessionHandler{mgr: mgr}
}

func payerID(c *gin.Context) string {
	sub, _ := c.Get("sub") // set by JWTAuth
	id, _ := sub.(string)
	return id
}

// POST /v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var in struct {
		CourtID string `json:"court_id" binding:"required"`
		Date    string `json:"date" binding:"required"` // YYYY-MM-DD
		Policy  string `json:"policy"`                  // partition|strict, default partition
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": "validation"})
		return
	}
	s, err := h.mgr.Open(in.CourtID, in.Date, payerID(c), domain.ContiguityPolicy(in.Policy))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Snapshot())
}

// GET /v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	s, err := h.owned(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// POST /v1/sessions/:id/toggle
func (h *SessionHandler) Toggle(c *gin.Context) {
	var in struct {
		StartTime string `json:"start_time" binding:"required"`
		EndTime   string `json:"end_time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": "validation"})
		return
	}
	s, err := h.owned(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.Toggle(in.StartTime, in.EndTime); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// POST /v1/sessions/:id/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	var in struct {
		PaymentReference string `json:"payment_reference"`
		PaymentStatus    string `json:"payment_status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": "validation"})
		return
	}
	s, err := h.owned(c)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := s.Submit(c.Request.Context(), in.PaymentReference, in.PaymentStatus)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"bookings": res.Bookings,
		"blocks":   res.Blocks,
		"evicted":  res.Evicted,
	})
}

// DELETE /v1/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	s, err := h.owned(c)
	if err != nil {
		writeError(c, err)
		return
	}
	_ = h.mgr.Close(s.ID)
	c.Status(http.StatusNoContent)
}

// owned resolves the session and checks it belongs to the caller. Foreign
// sessions read as not found rather than forbidden.
func (h *SessionHandler) owned(c *gin.Context) (*session.Session, error) {
	s, err := h.mgr.Get(c.Param("id"))
	if err != nil {
		return nil, err
	}
	if s.UserID != payerID(c) {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}
