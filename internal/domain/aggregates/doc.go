// Package aggregates defines the write boundaries of the focus engine.
//
// Contracts here are transport and persistence agnostic. Every write method
// owns its transaction and reports failures as *Error carrying an ErrorCode.
package aggregates
