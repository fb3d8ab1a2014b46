// Package tracing integrates observability back-ends with the pipeline
// engine to provide distributed tracing information.  All instrumentation is
// kept in this separate package; the pipeline and the root gradsync package
// import it unconditionally.
package tracing
