package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
)

// Result is the {success, message} contract the dormitory front end reads.
type Result struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Code     string      `json:"code,omitempty"`
	ID       string      `json:"id,omitempty"`
	Count    *int        `json:"count,omitempty"`
	User     interface{} `json:"user,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// OK sends a successful Result.
func OK(c *gin.Context, result Result) {
	noStore(c)
	result.Success = true
	c.JSON(http.StatusOK, result)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, result Result) {
	noStore(c)
	result.Success = true
	c.JSON(http.StatusCreated, result)
}

// List writes a bare JSON array; option lists and rosters are consumed as arrays.
func List[T any](c *gin.Context, items []T) {
	noStore(c)
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, items)
}

// Raw sends an arbitrary payload.
func Raw(c *gin.Context, status int, payload interface{}) {
	noStore(c)
	c.JSON(status, payload)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Result{Success: false, Message: appErr.Message, Code: appErr.Code})
}

// Count returns a pointer usable in Result.Count.
func Count(n int) *int {
	return &n
}
