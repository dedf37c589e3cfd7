// Package logx builds the process-wide zerolog logger from config.
//
// It only owns construction (level, console rendering, optional file sink);
// components receive a plain zerolog.Logger value and derive sub-loggers
// with .With().
package logx
