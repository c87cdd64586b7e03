// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"errors"
	"fmt"
)

// Wrap creates a new error that wraps the given error with additional context.
// If err is nil, returns nil.
//
// Usage:
//
//	if err := tree.UpsertFromFile(path); err != nil {
//	    return errors.Wrap(err, "layering service config")
//	}
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf creates a new error that wraps the given error with formatted context.
// If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target type.
//
// Usage:
//
//	var missing *MissingKeyError
//	if errors.As(err, &missing) {
//	    log.Printf("config key %s is not set", missing.Path)
//	}
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// IsMissingKey reports whether err contains a MissingKeyError.
func IsMissingKey(err error) bool {
	var target *MissingKeyError
	return errors.As(err, &target)
}

// IsNotFound reports whether err contains a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// TypeOf returns the ErrorType of the first classifier in err's chain, or
// "unknown" when none is present.
func TypeOf(err error) string {
	for err != nil {
		if c, ok := err.(ErrorClassifier); ok {
			return c.ErrorType()
		}
		err = errors.Unwrap(err)
	}
	return "unknown"
}
