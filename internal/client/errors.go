package client

import "fmt"

// APIError is a non-2xx answer from a provider API. Body is kept for logs only.
type APIError struct {
	Provider string
	Status   int
	Code     string
	Message  string
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error %d: %s %s", e.Provider, e.Status, e.Code, e.Message)
}

// StatusCode has the same shape as braintree-go's API errors.
func (e *APIError) StatusCode() int {
	return e.Status
}
