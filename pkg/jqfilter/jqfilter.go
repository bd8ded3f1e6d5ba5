// Package jqfilter compiles jq expressions into search filters.
//
// The expression sees each candidate as
//
//	{"content": "...", "metadata": <metadata as JSON>}
//
// and the candidate matches when the first value it produces is truthy
// (anything but false and null):
//
//	f, err := jqfilter.Compile(`.metadata.lang == "en"`)
//	results, err := idx.SimilaritySearch(ctx, q, 4, jqfilter.Filter[Meta](f, nil))
package jqfilter

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/haivivi/vecdb/pkg/vecindex"
)

// Expr is a compiled jq predicate. It is safe for concurrent use.
type Expr struct {
	src  string
	code *gojq.Code
}

// Compile parses and compiles src.
func Compile(src string) (*Expr, error) {
	query, err := gojq.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("jqfilter: invalid jq expression %q: %w", src, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jqfilter: compile %q: %w", src, err)
	}
	return &Expr{src: src, code: code}, nil
}

// String returns the source expression.
func (e *Expr) String() string {
	return e.src
}

// Match runs the expression on doc and reports whether its first output is
// truthy. A document for which the expression produces nothing does not
// match.
func (e *Expr) Match(doc any) (bool, error) {
	input, err := toJQ(doc)
	if err != nil {
		return false, fmt.Errorf("jqfilter: convert input: %w", err)
	}
	iter := e.code.Run(input)
	v, ok := iter.Next()
	if !ok {
		return false, nil
	}
	if err, ok := v.(error); ok {
		var halt *gojq.HaltError
		if errors.As(err, &halt) && halt.Value() == nil {
			return false, nil
		}
		return false, fmt.Errorf("jqfilter: %s: %w", e.src, err)
	}
	return v != nil && v != false, nil
}

// Filter adapts e to a vecindex filter. Documents whose evaluation fails
// are excluded; onErr, if non-nil, receives each such error.
func Filter[M any](e *Expr, onErr func(vecindex.Document[M], error)) vecindex.Filter[M] {
	return func(doc vecindex.Document[M]) bool {
		ok, err := e.Match(doc)
		if err != nil {
			if onErr != nil {
				onErr(doc, err)
			}
			return false
		}
		return ok
	}
}

// toJQ converts v to the plain values gojq operates on by a JSON round
// trip.
func toJQ(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
