package errors

import (
	"errors"
	"log/slog"
	"slices"
)

// Attrs returns the cause and metadata of err as slog key-value pairs, with
// metadata keys in sorted order. It returns nil if err is not a
// StructuredError.
func Attrs(err error) []any {
	var serr *StructuredError
	if !errors.As(err, &serr) {
		return nil
	}

	args := make([]any, 0, len(serr.metadata)*2+2)

	cause := serr.metadata["cause"]
	if serr.cause != nil {
		cause = serr.cause
	}
	if cause != nil {
		args = append(args, "cause", cause)
	}

	keys := make([]string, 0, len(serr.metadata))
	for k := range serr.metadata {
		if k != "cause" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, k := range keys {
		args = append(args, k, serr.metadata[k])
	}

	return args
}

// Log logs an error with logger, rendering the metadata of a StructuredError
// as fields. If logger is nil, the default slog logger is used.
func Log(logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error(err.Error(), Attrs(err)...)
}
