package calendar

// AuthError means stored calendar credentials were rejected or could not be
// refreshed. The user has to reconnect the calendar.
type AuthError struct {
	Source  string
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// ExternalServiceError wraps a failure talking to a calendar provider:
// unreachable, timed out, non-2xx or an unparseable document.
type ExternalServiceError struct {
	Source string
	Err    error
}

func (e *ExternalServiceError) Error() string {
	if e.Err == nil {
		return e.Source + " calendar unavailable"
	}
	return e.Source + " calendar: " + e.Err.Error()
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
