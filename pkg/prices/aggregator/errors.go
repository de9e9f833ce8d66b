package aggregator

import (
	"errors"
	"fmt"
)

// ErrOraclePanic indicates that an oracle panicked during its batch.
var ErrOraclePanic = errors.New("oracle panicked")

type panicError struct {
	value interface{}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrOraclePanic, e.value)
}

func (e *panicError) Unwrap() error {
	return ErrOraclePanic
}
