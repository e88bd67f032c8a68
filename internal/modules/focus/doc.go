// Package focus holds the pure transition rules of the focus engine: verdict
// thresholding, recovery windows, heartbeat crediting, abuse budgets,
// completion rewards and achievement counter mapping.
//
// Functions here mutate the structs they are given and never touch storage
// or the wall clock; callers pass "now" explicitly and persist the result
// through the session and completion aggregates.
package focus
