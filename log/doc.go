// Package log defines the logging facade used across the payments
// engine. Packages depend on the Logger interface and the typed Field
// constructors only; the concrete backend lives in the zap package and
// is injected at the process boundary.
//
// The core ledger package deliberately does not log at all. Diagnostics
// belong to the layers that drive it: the batch engine, the HTTP server,
// and the command-line entrypoint.
package log
