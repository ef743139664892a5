package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports every schema field absent from a record. The caller
// can fix all of them in one round trip.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "Missing fields: " + strings.Join(e.Missing, ", ")
}

// Kind classifies a ProcessingError by the pipeline stage that failed.
type Kind string

const (
	KindCoercion       Kind = "coercion"
	KindScaling        Kind = "scaling"
	KindClassification Kind = "classification"
	KindModel          Kind = "model"
)

// FieldError is a single value that could not be read as a number.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ProcessingError is any failure after field presence was established.
type ProcessingError struct {
	Kind Kind
	// Fields lists the offending fields of a coercion failure, in schema order.
	Fields []string
	Err    error
}

func (e *ProcessingError) Error() string {
	switch e.Kind {
	case KindCoercion:
		var fieldErrs []string
		var fe *FieldError
		for _, err := range unwrapAll(e.Err) {
			if errors.As(err, &fe) {
				fieldErrs = append(fieldErrs, fe.Error())
			}
		}
		if len(fieldErrs) > 0 {
			return "could not convert to float: " + strings.Join(fieldErrs, "; ")
		}
		return "could not convert to float: " + e.Err.Error()
	case KindModel:
		return e.Err.Error()
	default:
		return fmt.Sprintf("%s failed: %v", e.Kind, e.Err)
	}
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func unwrapAll(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// ErrorKind names the failure class of err for logs and metrics.
func ErrorKind(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return "validation"
	}
	var processingErr *ProcessingError
	if errors.As(err, &processingErr) {
		return string(processingErr.Kind)
	}
	if err != nil {
		return "unknown"
	}
	return ""
}
