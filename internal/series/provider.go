package series

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrNotFound is returned by providers for empty, out-of-range or future windows.
var ErrNotFound = errors.New("no data for window")

// Provider supplies the raw table for [start, end).
type Provider interface {
	Fetch(ctx context.Context, start, end time.Time) (*Table, error)
}

// Reason classifies a fetch outcome. Callers treat every reason other than
// ReasonOK as "no data available".
type Reason int

const (
	ReasonOK Reason = iota
	ReasonNoData
	ReasonFailed
	ReasonTimeout
)

func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonNoData:
		return "no_data"
	case ReasonFailed:
		return "failed"
	case ReasonTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

type Result struct {
	Table  *Table
	Reason Reason
	Err    error
}

func (r Result) OK() bool {
	return r.Reason == ReasonOK
}

// Fetch calls the provider behind a timeout. A panicking, failing or slow
// provider yields a non-OK result instead of an error.
func Fetch(ctx context.Context, p Provider, start, end time.Time, timeout time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		table *Table
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		t, err := p.Fetch(ctx, start, end)
		ch <- outcome{table: t, err: err}
	}()

	select {
	case o := <-ch:
		switch {
		case errors.Is(o.err, ErrNotFound):
			return Result{Reason: ReasonNoData, Err: o.err}
		case o.err != nil:
			return Result{Reason: ReasonFailed, Err: o.err}
		case o.table.Empty():
			return Result{Reason: ReasonNoData, Err: ErrNotFound}
		}
		return Result{Table: o.table}
	case <-ctx.Done():
		return Result{Reason: ReasonTimeout, Err: ctx.Err()}
	}
}

// Split is the output of the external category transform. All tables share
// the timestamp column.
type Split struct {
	Detailed  *Table
	Combined  *Table
	Balance   *Table
	Aggregate *Table
}

// Transform turns a raw provider table into the category tables.
type Transform func(raw *Table) (Split, error)

// ColumnSplit is a Transform that routes named columns to the balance and
// aggregate tables and keeps every other column as a combined category.
type ColumnSplit struct {
	Balance   []string
	Aggregate []string
}

func (c ColumnSplit) Transform(raw *Table) (Split, error) {
	if raw == nil {
		return Split{}, errors.New("transform: nil table")
	}

	var combined, balance, aggregate []string
	for _, name := range raw.Columns() {
		switch {
		case slices.Contains(c.Aggregate, name):
			aggregate = append(aggregate, name)
		case slices.Contains(c.Balance, name):
			balance = append(balance, name)
		default:
			combined = append(combined, name)
		}
	}

	return Split{
		Detailed:  raw.Subset(raw.Columns()),
		Combined:  raw.Subset(combined),
		Balance:   raw.Subset(balance),
		Aggregate: raw.Subset(aggregate),
	}, nil
}

// SafeTransform runs tr and converts a panic into an error.
func SafeTransform(tr Transform, raw *Table) (s Split, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panic: %v", r)
		}
	}()
	return tr(raw)
}
