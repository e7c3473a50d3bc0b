package middleware

import (
	"strings"

	"github.com/haierkeys/issue-note-service/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// requestLang 依次读取 ?lang=、lang 请求头、Accept-Language 的首选项
func requestLang(c *gin.Context) string {
	if s, ok := c.GetQuery("lang"); ok && s != "" {
		return s
	}
	if s := c.GetHeader("lang"); s != "" {
		return s
	}
	accept := c.GetHeader("Accept-Language")
	if i := strings.IndexAny(accept, ",;"); i >= 0 {
		accept = accept[:i]
	}
	return accept
}

// LangWithTranslator 设置校验错误翻译器与响应消息语言
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := code.NormalizeLang(requestLang(c))

		locale := "en"
		if lang == "zh_cn" {
			locale = "zh"
		}
		trans, found := uni.GetTranslator(locale)
		if !found {
			trans = uni.GetFallback()
		}
		c.Set("trans", trans)

		_ = code.SetGlobalDefaultLang(lang)

		c.Next()
	}
}
