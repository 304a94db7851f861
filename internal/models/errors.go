package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource Errors
	ErrNotFound      = errors.New("resource not found") // General not found
	ErrStoryNotFound = errors.New("story not found")
	ErrSceneNotFound = errors.New("scene not found")

	// Authentication Errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Catalog Errors
	ErrInvalidStoryGraph = errors.New("story graph is malformed")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
