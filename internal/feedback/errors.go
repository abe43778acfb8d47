package feedback

import "errors"

// ErrInvalidFeedback is returned when rating or effectiveness is out of range.
var ErrInvalidFeedback = errors.New("invalid feedback")
