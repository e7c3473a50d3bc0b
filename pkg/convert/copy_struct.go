package convert

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// copyOption 时间与指针等类型的复制选项
var copyOption = copier.Option{
	IgnoreEmpty: false,
	DeepCopy:    true,
}

// StructAssign 把 src 与 dst 中同名字段的值复制到 dst，支持切片到切片
func StructAssign(src any, dst any) error {
	if err := copier.CopyWithOption(dst, src, copyOption); err != nil {
		return errors.Wrap(err, "convert.StructAssign")
	}
	return nil
}

// CopySlice 将 []S 复制为 []D
func CopySlice[S any, D any](src []S) ([]D, error) {
	out := make([]D, 0, len(src))
	if err := StructAssign(&src, &out); err != nil {
		return nil, err
	}
	return out, nil
}
