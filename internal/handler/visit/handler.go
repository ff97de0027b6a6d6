package visit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-desk/internal/handler"
	"github.com/jwalitptl/clinic-desk/internal/middleware"
	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/service/printout"
	"github.com/jwalitptl/clinic-desk/internal/service/visitform"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
	"github.com/jwalitptl/clinic-desk/pkg/validator"
)

const (
	formatJSON   = "json"
	contentXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	headerVisit  = "X-Visit-ID"
	queryFormat  = "format"
	queryPrint   = "print"
	paramPatient = "id"
	paramVisit   = "visitId"
)

type FormController interface {
	Load(ctx context.Context, patientID model.ID) (*visitform.Prefill, error)
	Submit(ctx context.Context, scope string, patientID model.ID, form *visitform.Form, printAfterSave bool) (*visitform.Result, error)
}

type Printer interface {
	Document(ctx context.Context, patientID, visitID model.ID) (*printout.Document, error)
	LatestID(ctx context.Context, scope string, patientID model.ID) (model.ID, error)
	Write(w io.Writer, doc printout.Document, format string) error
	Share(ctx context.Context, patientID, visitID model.ID, to string) error
}

type Handler struct {
	forms   FormController
	printer Printer
}

func NewHandler(forms FormController, printer Printer) *Handler {
	return &Handler{forms: forms, printer: printer}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/medicine-options", h.MedicineOptions)

	visits := r.Group("/patients/:id/visits")
	{
		visits.GET("/new", h.NewVisit)
		visits.POST("/bmi", h.PreviewBMI)
		visits.POST("", h.CreateVisit)
		visits.GET("/latest/print", h.PrintLatest)
		visits.GET("/:visitId/print", h.Print)
		visits.POST("/:visitId/share", h.Share)
	}
}

func (h *Handler) MedicineOptions(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.Options()))
}

// NewVisit returns the patient header and an empty entry form.
func (h *Handler) NewVisit(c *gin.Context) {
	patientID, err := handler.IDParam(c, paramPatient)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	prefill, err := h.forms.Load(c.Request.Context(), patientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(prefill))
}

type bmiRequest struct {
	WeightKg string `json:"weight_kg"`
	HeightCm string `json:"height_cm"`
}

func (h *Handler) PreviewBMI(c *gin.Context) {
	var req bmiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"bmi": visitform.BMI(req.WeightKg, req.HeightCm)}))
}

func (h *Handler) CreateVisit(c *gin.Context) {
	patientID, err := handler.IDParam(c, paramPatient)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	printAfterSave := false
	if v := c.Query(queryPrint); v != "" {
		printAfterSave, err = strconv.ParseBool(v)
		if err != nil {
			handler.Fail(c, apperrors.NewBadRequest("invalid print flag", err))
			return
		}
	}

	var form visitform.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		handler.Fail(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	result, err := h.forms.Submit(c.Request.Context(), middleware.DeskSessionID(c), patientID, &form, printAfterSave)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) Print(c *gin.Context) {
	patientID, err := handler.IDParam(c, paramPatient)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	visitID, err := handler.IDParam(c, paramVisit)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	h.render(c, patientID, visitID)
}

// PrintLatest prints the visit this desk session just saved, or the
// patient's most recent visit.
func (h *Handler) PrintLatest(c *gin.Context) {
	patientID, err := handler.IDParam(c, paramPatient)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	visitID, err := h.printer.LatestID(c.Request.Context(), middleware.DeskSessionID(c), patientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	h.render(c, patientID, visitID)
}

func (h *Handler) render(c *gin.Context, patientID, visitID model.ID) {
	doc, err := h.printer.Document(c.Request.Context(), patientID, visitID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.Header(headerVisit, visitID.String())

	format := c.DefaultQuery(queryFormat, printout.FormatText)
	if format == formatJSON {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(doc))
		return
	}

	var buf bytes.Buffer
	if err := h.printer.Write(&buf, *doc, format); err != nil {
		handler.Fail(c, err)
		return
	}

	switch format {
	case printout.FormatXLSX:
		c.Header("Content-Disposition", `attachment; filename="prescription-`+visitID.String()+`.xlsx"`)
		c.Data(http.StatusOK, contentXLSX, buf.Bytes())
	default:
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
	}
}

type shareRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) Share(c *gin.Context) {
	patientID, err := handler.IDParam(c, paramPatient)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	visitID, err := handler.IDParam(c, paramVisit)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, validator.Translate(err))
		return
	}

	if err := h.printer.Share(c.Request.Context(), patientID, visitID, req.Email); err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"shared": true}))
}
