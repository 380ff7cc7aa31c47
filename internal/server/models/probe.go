package models

// Greeting is the payload of the placeholder test endpoint.
type Greeting struct {
	Message string `json:"message"`
}
