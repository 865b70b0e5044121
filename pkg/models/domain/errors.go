package domain

import "errors"

var (
	ErrInvalidDataType      = errors.New("invalid data type")
	ErrNotImplemented       = errors.New("generate is not implemented")
	ErrMissingParameter     = errors.New("missing parameter")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrValueNotInDomain     = errors.New("value not in parameter domain")
	ErrPumpGenerationFailed = errors.New("pump generation failed")
	ErrUnknownPumpType      = errors.New("unknown pump type")
	ErrUnknownField         = errors.New("unknown field")
	ErrInvalidExpression    = errors.New("invalid expression")
	ErrReportNotFound       = errors.New("report config not found")
)
