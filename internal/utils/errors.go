package utils

import "fmt"

// AppError annotates a failure with the prediction operation that produced
// it ("predict", "predict_offer", "load_dataset") and a caller-facing
// message. The underlying cause stays reachable through errors.Is/As, so
// sentinels like models.ErrInvalidRank survive the wrapping.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with the operation name and message.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}
