package models

// ErrorResponse - стандартизированный формат ошибки для HTTP-ответов.
type ErrorResponse struct {
	Error string `json:"error"`
}
