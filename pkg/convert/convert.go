package convert

import (
	"strconv"
	"strings"
)

// StrTo 字符串转换辅助类型
type StrTo string

func (s StrTo) String() string {
	return strings.TrimSpace(string(s))
}

func (s StrTo) Int() (int, error) {
	return strconv.Atoi(s.String())
}

func (s StrTo) MustInt() int {
	v, _ := s.Int()
	return v
}

func (s StrTo) Bool() (bool, error) {
	return strconv.ParseBool(s.String())
}

// MustBool 解析失败时返回 def
func (s StrTo) MustBool(def bool) bool {
	v, err := s.Bool()
	if err != nil {
		return def
	}
	return v
}
