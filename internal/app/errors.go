package app

import "errors"

var (
	// ErrEmptyQuery indicates the query was empty after trimming.
	ErrEmptyQuery = errors.New("query is required")
	// ErrUsernameTaken indicates registration with an existing username.
	ErrUsernameTaken = errors.New("username already in use")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnknownVoice indicates a narration voice outside the fixed set.
	ErrUnknownVoice = errors.New("unknown narration voice")
	// ErrUnknownLanguage indicates a narration language outside the fixed set.
	ErrUnknownLanguage = errors.New("unknown narration language")
)
