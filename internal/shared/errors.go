package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrEmailNotConfirmed  = fmt.Errorf("email not confirmed")
	ErrEmailTaken         = fmt.Errorf("email already registered")
	ErrSessionExpired     = fmt.Errorf("session expired")
	ErrRateLimited        = fmt.Errorf("too many requests")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Store errors
	ErrStore              = fmt.Errorf("store request failed")
	ErrSongNotFound       = fmt.Errorf("song not found")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrConflict           = fmt.Errorf("record already exists")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// View state errors
	ErrInvalidTransition = fmt.Errorf("action not available on this screen")
	ErrSaveInFlight      = fmt.Errorf("save already in progress")
	ErrEmptyTitle        = fmt.Errorf("song title is empty")
	ErrLastLine          = fmt.Errorf("a song needs at least one line")
	ErrLineNotFound      = fmt.Errorf("line not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// User-facing paraphrases of store failures.
const (
	MsgLoadFailed    = "Failed to load songs from database."
	MsgConnectFailed = "Failed to connect to database. Please check your configuration."
	MsgSaveFailed    = "Failed to save song to database."
	MsgDeleteFailed  = "Failed to delete song from database."
)
