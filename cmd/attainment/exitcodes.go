package main

import (
	"github.com/pkg/errors"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/layout"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/infrastructure/xlsx"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/services"
	distribution "github.com/jacksonlee411/attainment-reports/modules/distribution/services"
	"github.com/jacksonlee411/attainment-reports/pkg/configuration"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK          = 0
	exitValidation  = 2
	exitUsage       = 3
	exitIO          = 4
	exitUnavailable = 5
	exitPartial     = 6
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}

// classify attaches the exit code of a domain error. Anything unknown is
// treated as an io failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return err
	}
	switch {
	case errors.Is(err, record.ErrMissingColumn),
		errors.Is(err, xlsx.ErrUnsupportedFormat),
		errors.Is(err, xlsx.ErrSheetNotFound),
		errors.Is(err, xlsx.ErrEmptySource),
		errors.Is(err, xlsx.ErrRosterColumns),
		errors.Is(err, layout.ErrInvalidLayout),
		errors.Is(err, configuration.ErrInvalidConfiguration),
		errors.Is(err, distribution.ErrNoMetadata),
		errors.Is(err, distribution.ErrUnsafeArchive):
		return withCode(exitValidation, err)
	case errors.Is(err, services.ErrUnknownMatchMode),
		errors.Is(err, services.ErrNoOutputRoot):
		return withCode(exitUsage, err)
	case errors.Is(err, distribution.ErrUnavailable):
		return withCode(exitUnavailable, err)
	}
	return withCode(exitIO, err)
}
