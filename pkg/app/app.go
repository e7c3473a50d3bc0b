package app

import (
	"strings"

	"github.com/haierkeys/issue-note-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionInfo 版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

type Response struct {
	Ctx *gin.Context
}

type Pager struct {
	Page      int `json:"page"`      // 页码
	PageSize  int `json:"pageSize"`  // 每页数量
	TotalRows int `json:"totalRows"` // 总行数
}

type ListRes struct {
	List  interface{} `json:"list"`
	Pager Pager       `json:"pager"`
}

// Res 统一响应结构，业务结果只看 Code，HTTP 状态码恒为 200
type Res struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{Ctx: ctx}
}

// GetAccessHost 对外访问地址，优先使用反向代理传入的协议与主机
func GetAccessHost(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if c.Request.TLS != nil {
			proto = "https"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return proto + "://" + host
}

// envelope 由 Code 构造响应体，data 为 nil 时使用 Code 自带的数据
func envelope(codeObj *code.Code, data interface{}) Res {
	if data == nil {
		data = codeObj.Data()
	}
	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.Lang.GetMessage(),
		Data:    data,
	}
	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}
	return content
}

// ToResponse 输出单个结果
func (r *Response) ToResponse(codeObj *code.Code) {
	r.send(codeObj.StatusCode(), envelope(codeObj, nil))
}

// ToResponseList 输出分页列表，Data 为 ListRes
func (r *Response) ToResponseList(codeObj *code.Code, list interface{}, totalRows int) {
	r.send(codeObj.StatusCode(), envelope(codeObj, ListRes{
		List:  list,
		Pager: *NewPager(r.Ctx, totalRows),
	}))
}

func (r *Response) send(statusCode int, content Res) {
	r.Ctx.Set("status_code", statusCode)
	r.Ctx.Set("res_code", content.Code)
	r.Ctx.JSON(statusCode, content)
}
