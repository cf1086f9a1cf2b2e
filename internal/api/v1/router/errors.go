package router

import "github.com/danielgtaylor/huma/v2"

// apiError renders every API error as {"error": "<message>"}. Details of the
// underlying error are never sent to the client.
type apiError struct {
	status  int
	Message string `json:"error"`
}

func (e *apiError) Error() string  { return e.Message }
func (e *apiError) GetStatus() int { return e.status }

func newAPIError(status int, msg string, _ ...error) huma.StatusError {
	return &apiError{status: status, Message: msg}
}
