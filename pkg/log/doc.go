// Package log provides a minimal structured logging abstraction.
//
// The [Logger] interface decouples the module from any concrete logging
// library. [NewZerologAdapter] wraps zerolog for real output; [NoopLogger]
// discards everything and is the default for embedded use.
//
// Fields are constructed with the typed helpers ([String], [Int], [Err],
// ...) so adapters can map them onto their library's typed field API
// without reflection.
package log
