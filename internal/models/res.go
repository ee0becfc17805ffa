package models

// ApiResponse is the envelope every endpoint answers with.
type ApiResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Total     *int   `json:"total,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func SuccessResponse(data any, message string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func ErrorResponse(msg string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   msg,
	}
}

// EventListResponse always carries data and total, so an empty result is
// an empty array with total 0 rather than missing fields.
func EventListResponse(views []*EventView) ApiResponse {
	if views == nil {
		views = []*EventView{}
	}
	total := len(views)
	return ApiResponse{
		Success: true,
		Data:    views,
		Total:   &total,
	}
}

func UnauthorizedResponse(msg string) ApiResponse {
	return ApiResponse{
		Success: false,
		Message: "Unauthorized access",
		Error:   msg,
	}
}

// InternalErrorResponse hides the cause; the request id links the reply to
// the logged error.
func InternalErrorResponse(requestID string) ApiResponse {
	return ApiResponse{
		Success:   false,
		Error:     "internal server error",
		RequestID: requestID,
	}
}
