package identification

import "errors"

// ErrNoImage is returned when a query carries no image. Nothing is sent to the
// model in that case.
var ErrNoImage = errors.New("no image provided")

var errEmptyImage = errors.New("image is empty")

// UpstreamError covers every failure after input validation: decoding the
// upload, calling the model, or parsing its answer. Its message is the message
// of the underlying error.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(err error) error {
	return &UpstreamError{Err: err}
}
