package response

// ResponseData is the JSON envelope returned by every endpoint.
// Status is the HTTP status used when the envelope is written and is not serialized.
type ResponseData struct {
	Status  int    `json:"-"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Success(status int, message string, data any) ResponseData {
	return ResponseData{Status: status, Success: true, Message: message, Data: data}
}

func Failure(status int, message string) ResponseData {
	return ResponseData{Status: status, Success: false, Message: message}
}
