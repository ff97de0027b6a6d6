package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-desk/internal/model"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Field   string      `json:"field,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Fail records err for the error middleware and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// IDParam reads a required path id.
func IDParam(c *gin.Context, name string) (model.ID, error) {
	v := c.Param(name)
	if v == "" {
		return "", apperrors.NewBadRequest("invalid "+name, nil)
	}
	return model.ID(v), nil
}

// IntParam reads a non-negative integer path parameter.
func IntParam(c *gin.Context, name string) (int, error) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 0 {
		return 0, apperrors.NewBadRequest("invalid "+name, err)
	}
	return n, nil
}
