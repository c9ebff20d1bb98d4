package httpapi

// Result 应用端接口统一响应封装
// - code: 2000 成功
// - type: 'success' | 'error' | 'warning'
// - message: string
// - result: any
// 设备端入栈接口不使用此封装（设备固件侧约定见 ingest_handler.go）
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}
