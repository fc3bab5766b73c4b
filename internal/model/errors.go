// Package model 包含了应用的数据模型定义。
package model

import "errors"

// 核心错误分类。下游失败在调用点被捕获并降级为回退值，
// 只有这里定义的哨兵错误会穿透到调用方。
var (
	// ErrValidation 表示必填参数缺失或为空。
	ErrValidation = errors.New("validation error")
	// ErrNotFound 表示会话、用户或文章不存在且没有定义回退。
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict 表示上下文写入时乐观并发校验失败。
	ErrVersionConflict = errors.New("context version conflict")
)
