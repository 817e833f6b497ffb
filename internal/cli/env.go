package cli

import (
	"os"
	"strconv"
)

// Environment variables that provide flag defaults. cmd/mealy loads them
// from a .env file before the commands are built.
const (
	EnvWorkers  = "MEALY_WORKERS"
	EnvMaxDepth = "MEALY_MAX_DEPTH"
)

// envInt returns the integer value of the named variable, or def when it
// is unset or not a non-negative integer.
func envInt(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
