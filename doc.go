// Package paymentsengine carries the cross-cutting pieces shared by the
// batch pipeline and the HTTP facade: environment configuration helpers
// and the transport-facing business error shape.
package paymentsengine
