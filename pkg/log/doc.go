/*
Package log provides structured logging for the simulator built on zerolog.

Call Init once at startup, then derive child loggers with WithComponent,
WithController or WithSession so every line carries the context it was
emitted from. Console output is the default; JSON output is available for
machine consumption.
*/
package log
