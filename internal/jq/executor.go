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

// Package jq runs jq queries over the resolved run configuration.
package jq

import (
	"context"
	"fmt"
	"time"

	"github.com/itchyny/gojq"

	"github.com/tombee/lola/pkg/errors"
)

// DefaultTimeout bounds a single query.
const DefaultTimeout = time.Second

// Executor compiles and runs jq expressions.
type Executor struct {
	timeout time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewExecutor creates an executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs expression against data. A single result is returned as-is,
// several results as a []any, and no result as nil. An empty expression
// returns data unchanged.
func (e *Executor) Execute(ctx context.Context, expression string, data any) (any, error) {
	results, err := e.Run(ctx, expression, data)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// Run returns every result of expression.
func (e *Executor) Run(ctx context.Context, expression string, data any) ([]any, error) {
	if expression == "" {
		return []any{data}, nil
	}

	code, err := compile(expression)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var results []any
	iter := code.RunWithContext(ctx, data)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("query timed out after %v", e.timeout)
			}
			return nil, &errors.ValidationError{
				Field:   "query",
				Message: err.Error(),
			}
		}
		results = append(results, v)
	}
	return results, nil
}

// Validate reports whether expression compiles.
func (e *Executor) Validate(expression string) error {
	if expression == "" {
		return nil
	}
	_, err := compile(expression)
	return err
}

func compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "query",
			Message: fmt.Sprintf("invalid jq expression: %v", err),
			Hint:    "check the expression syntax, e.g. .logging.level",
		}
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "query",
			Message: fmt.Sprintf("jq compilation failed: %v", err),
		}
	}
	return code, nil
}
