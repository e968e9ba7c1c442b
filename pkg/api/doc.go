// Package api defines the public types and contracts of the stepflow
// engine: step records and their lifecycle, per-step retry and timeout
// configuration, the Step interface handed to workflow functions, the
// event gateway boundary, and the observer hooks used for logging and
// metrics.
//
// Most users import the root stepflow package, which re-exports
// everything here.
package api
