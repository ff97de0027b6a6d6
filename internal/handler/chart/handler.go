package chart

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-desk/internal/handler"
	"github.com/jwalitptl/clinic-desk/internal/middleware"
	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/service/visitdetail"
	"github.com/jwalitptl/clinic-desk/pkg/validator"
)

type Sessions interface {
	Open(ctx context.Context, scope string, patientID model.ID, reload bool) (*visitdetail.Session, error)
	Close(scope string, patientID model.ID)
}

type Handler struct {
	sessions Sessions
}

func NewHandler(sessions Sessions) *Handler {
	return &Handler{sessions: sessions}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	chart := r.Group("/patients/:id/chart")
	{
		chart.GET("", h.GetChart)
		chart.DELETE("", h.CloseChart)
		chart.PUT("/selection", h.SelectVisit)
		chart.POST("/visits/:visitId/medicines", h.AddMedicine)
		chart.PATCH("/visits/:visitId/medicines/:index", h.EditMedicine)
		chart.POST("/visits/:visitId/medicines/save", h.SaveMedicines)
	}
}

func (h *Handler) open(c *gin.Context, reload bool) (*visitdetail.Session, bool) {
	patientID, err := handler.IDParam(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return nil, false
	}
	s, err := h.sessions.Open(c.Request.Context(), middleware.DeskSessionID(c), patientID, reload)
	if err != nil {
		handler.Fail(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) respondChart(c *gin.Context, s *visitdetail.Session) {
	chart, err := s.Chart()
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(chart))
}

func (h *Handler) respondVisit(c *gin.Context, s *visitdetail.Session, visitID model.ID) {
	view, err := s.View(visitID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}

// GetChart opens the patient's chart. reload=true discards unsaved edits and
// fetches everything again.
func (h *Handler) GetChart(c *gin.Context) {
	reload, _ := strconv.ParseBool(c.Query("reload"))
	s, ok := h.open(c, reload)
	if !ok {
		return
	}
	h.respondChart(c, s)
}

func (h *Handler) CloseChart(c *gin.Context) {
	patientID, err := handler.IDParam(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	h.sessions.Close(middleware.DeskSessionID(c), patientID)
	c.Status(http.StatusNoContent)
}

type selectionRequest struct {
	VisitID model.ID `json:"visit_id" binding:"required"`
}

func (h *Handler) SelectVisit(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, validator.Translate(err))
		return
	}
	s, ok := h.open(c, false)
	if !ok {
		return
	}
	if err := s.Select(req.VisitID); err != nil {
		handler.Fail(c, err)
		return
	}
	h.respondChart(c, s)
}

type editRequest struct {
	Field string `json:"field" binding:"required,oneof=dosage when_to_take frequency"`
	Value string `json:"value"`
}

// EditMedicine changes one selectable field of a medicine row. Index equal
// to the number of rows starts a new row.
func (h *Handler) EditMedicine(c *gin.Context) {
	index, err := handler.IntParam(c, "index")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, validator.Translate(err))
		return
	}

	s, ok := h.open(c, false)
	if !ok {
		return
	}
	visitID := model.ID(c.Param("visitId"))
	if err := s.Edit(visitID, index, req.Field, req.Value); err != nil {
		handler.Fail(c, err)
		return
	}
	h.respondVisit(c, s, visitID)
}

type addRequest struct {
	Type         string `json:"type"`
	Name         string `json:"name" binding:"required,notblank"`
	Dosage       string `json:"dosage" binding:"dosage"`
	WhenToTake   string `json:"when_to_take" binding:"when"`
	Frequency    string `json:"frequency" binding:"frequency"`
	DurationDays *int   `json:"duration_days" binding:"omitempty,gte=0"`
	Qty          *int   `json:"qty" binding:"omitempty,gte=0"`
	Note         string `json:"note"`
}

func (h *Handler) AddMedicine(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, validator.Translate(err))
		return
	}

	s, ok := h.open(c, false)
	if !ok {
		return
	}
	visitID := model.ID(c.Param("visitId"))
	err := s.Add(visitID, model.Medicine{
		Type:         req.Type,
		Name:         req.Name,
		Dosage:       req.Dosage,
		WhenToTake:   req.WhenToTake,
		Frequency:    req.Frequency,
		DurationDays: req.DurationDays,
		Qty:          req.Qty,
		Note:         req.Note,
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}
	h.respondVisit(c, s, visitID)
}

// SaveMedicines sends the visit's whole medicine list to the backend.
func (h *Handler) SaveMedicines(c *gin.Context) {
	s, ok := h.open(c, false)
	if !ok {
		return
	}
	visitID := model.ID(c.Param("visitId"))
	if err := s.Save(c.Request.Context(), visitID); err != nil {
		handler.Fail(c, err)
		return
	}
	h.respondVisit(c, s, visitID)
}
