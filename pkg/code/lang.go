package code

import (
	"errors"
	"strings"
	"sync/atomic"
)

// lang 英文与中文文本
type lang struct {
	en    string
	zh_cn string
}

const FALLBACK_LNG = "en"

// lng 当前语言，由语言中间件按请求设置；未设置时为英文
// 错误码在包级变量初始化阶段即读取语言，早于 init 执行
var lng atomic.Value

// NormalizeLang 统一语言标识：zh / zh-CN / zh_Hans 都视为 zh_cn，未知值返回空
func NormalizeLang(language string) string {
	l := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(language), "-", "_"))
	switch {
	case l == "":
		return ""
	case l == "zh" || strings.HasPrefix(l, "zh_"):
		return "zh_cn"
	case l == "en" || strings.HasPrefix(l, "en_"):
		return "en"
	}
	return ""
}

// In 返回指定语言的文本，缺失时回退到英文
func (l lang) In(language string) string {
	if NormalizeLang(language) == "zh_cn" && l.zh_cn != "" {
		return l.zh_cn
	}
	if l.en != "" {
		return l.en
	}
	return l.zh_cn
}

// GetMessage 返回当前语言的文本
func (l lang) GetMessage() string {
	return l.In(GetGlobalDefaultLang())
}

// SetGlobalDefaultLang 设置当前语言，不支持的语言回退到英文并返回错误
func SetGlobalDefaultLang(language string) error {
	if l := NormalizeLang(language); l != "" {
		lng.Store(l)
		return nil
	}
	lng.Store(FALLBACK_LNG)
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang 获取当前语言
func GetGlobalDefaultLang() string {
	if v, ok := lng.Load().(string); ok {
		return v
	}
	return FALLBACK_LNG
}
