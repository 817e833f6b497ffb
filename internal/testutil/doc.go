// Package testutil provides deterministic fixtures shared by package
// tests: model specs for the counter/supervisor workload and sequential
// run ids.
package testutil
