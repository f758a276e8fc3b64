// Package errors provides sentinel and typed errors shared across the bot.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrPositionNotFound = errors.New("position not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrTimeout          = errors.New("operation timed out")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrNoData           = errors.New("no data returned")
	ErrNotConfigured    = errors.New("not configured")
)

// BrokerError represents a non-2xx response from the broker API.
type BrokerError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *BrokerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker error [%d %s]: %s: %v", e.Status, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("broker error [%d %s]: %s", e.Status, e.Code, e.Message)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

// NewBrokerError creates a new BrokerError.
func NewBrokerError(status int, code, message string, err error) *BrokerError {
	return &BrokerError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// OrderError represents a failed buy or sell for one symbol.
type OrderError struct {
	Symbol string
	Side   string
	Reason string
	Err    error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order error %s %s (%s): %v", e.Side, e.Symbol, e.Reason, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(symbol, side, reason string, err error) *OrderError {
	return &OrderError{
		Symbol: symbol,
		Side:   side,
		Reason: reason,
		Err:    err,
	}
}

// DataError represents a market data or news feed failure.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// Timeout maps a context deadline into ErrTimeout so callers can treat it as retryable.
func Timeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// IsTransient reports whether the next scheduled invocation may simply retry.
func IsTransient(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var be *BrokerError
	if errors.As(err, &be) {
		return be.Status >= 500
	}
	return false
}

// IsRejected reports whether the broker definitely refused a request, as
// opposed to a timeout or transport failure where the outcome is unknown.
func IsRejected(err error) bool {
	var be *BrokerError
	if errors.As(err, &be) {
		return be.Status >= 400 && be.Status < 500 && be.Status != 408
	}
	return false
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
