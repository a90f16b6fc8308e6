// Command draftrank ranks robotics teams for a draft pick by asking a
// text-generation service to compare their telemetry.
//
// Usage:
//
//	draftrank serve
//	draftrank compare --teams 254,1678,971 --priority auto:2 --pick 3
//	draftrank compare --teams 254,1678 --question "Who climbs faster?"
//	draftrank plan --teams 45 --priorities 4
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Load .env if present
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
