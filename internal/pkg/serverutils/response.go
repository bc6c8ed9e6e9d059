package serverutils

// Response is the JSON envelope of every REST endpoint
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) Response {
	return Response{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// ValidationErrorResponse carries per-field messages in Data
func ValidationErrorResponse(fields map[string]string) Response {
	return Response{
		Success: false,
		Code:    400,
		Message: "Validation failed",
		Data:    fields,
	}
}
