// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the single-threaded readiness reactor (Agent): a
// registry of api.IOInterface sources keyed by descriptor, a readiness set
// mirrored into one blocking wait call per iteration, and the timeout
// strategies (manual, uniform, exponential) that bound each wait.
//
// The loop is PREPARE -> WAIT -> DISPATCH. Ready descriptors are dispatched
// in ascending order; a wait that expires fires the timeout hook; a failing
// wait ends Run with an api.ErrFatalIO error.
package reactor
