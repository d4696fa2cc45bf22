// Package app provides the shared gin response envelope and request
// binding helpers used by the HTTP surface.
package app

import (
	"github.com/baluardo/backup-control-service/pkg/code"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Ctx *gin.Context
}

// Res is the unified response structure: Code/Status/Msg/Data.
// Optional fields use omitempty and are not serialized when absent.
type Res struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type Pager struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	TotalRows int64 `json:"totalRows"`
}

type ListRes struct {
	List  interface{} `json:"list"`
	Pager Pager       `json:"pager"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{Ctx: ctx}
}

// ToResponse writes the result code as the response body.
func (r *Response) ToResponse(c *code.Code) {
	res := Res{
		Code:    c.Code(),
		Status:  c.Status(),
		Message: c.Msg(),
	}
	if c.HaveData() {
		res.Data = c.Data()
	}
	if c.HaveDetails() {
		res.Details = c.Details()
	}
	r.Ctx.JSON(c.StatusCode(), res)
}

// ToResponseList writes a paginated list response.
func (r *Response) ToResponseList(c *code.Code, list interface{}, totalRows int64) {
	r.ToResponse(c.WithData(ListRes{
		List: list,
		Pager: Pager{
			Page:      GetPage(r.Ctx),
			PageSize:  GetPageSize(r.Ctx),
			TotalRows: totalRows,
		},
	}))
}
