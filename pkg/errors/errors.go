package errors

import "errors"

// ErrStaleState 条件更新未命中：记录已被其他请求修改
var ErrStaleState = errors.New("record was modified by a concurrent request")
