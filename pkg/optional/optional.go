// Package optional distinguishes "field absent" from "field present with zero/null value"
// for partial updates.
// Package optional 区分“字段未提供”与“字段显式为空”，用于局部更新
package optional

import (
	"bytes"
	"encoding/json"
)

// Value 可选值；Set 为 true 表示调用方提供了该字段（即使值为 null）
type Value[T any] struct {
	Set   bool
	Value T
}

// Of 返回已设置的值
func Of[T any](v T) Value[T] {
	return Value[T]{Set: true, Value: v}
}

// Null 返回已设置但为 null 的指针值
func Null[T any]() Value[*T] {
	return Value[*T]{Set: true}
}

// Get 返回值与是否设置
func (v Value[T]) Get() (T, bool) {
	return v.Value, v.Set
}

// OrElse 未设置时返回 def
func (v Value[T]) OrElse(def T) T {
	if v.Set {
		return v.Value
	}
	return def
}

// UnmarshalJSON 只要 JSON 中出现该键就会被调用，因此可以标记 Set
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		v.Value = zero
		return nil
	}
	return json.Unmarshal(data, &v.Value)
}

// MarshalJSON 未设置时输出 null
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}
