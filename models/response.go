package models

// Response is the envelope every handler returns.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Next is the data payload used when a handler points the client at another page.
type Next struct {
	Next string `json:"next"`
}
