// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// The factory New creates a *slog.Logger configured by Option functions:
// output format (text or json), minimum level, default attributes applied to
// every record, and ContextExtractor callbacks that inject request-scoped
// values each time a record is handled.
//
// Helper constructors in attr.go keep attribute naming consistent across the
// dispatch engine: logger.UserID, logger.Channel, logger.DeliveryUnitID and
// friends are preferred over ad-hoc slog.String calls so that delivery logs
// aggregate cleanly.
package logger
