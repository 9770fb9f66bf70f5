package main

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const (
	statsAddress = "localhost:12600"
	statsURL     = "/debug/statsview"
)

// launchStatsview serves runtime charts in a new goroutine and returns a
// function that shuts the server down.
func launchStatsview(output io.Writer) func() {
	viewer.SetConfiguration(viewer.WithAddr(statsAddress))
	mgr := statsview.New()
	go mgr.Start()
	fmt.Fprintf(output, "stats server available at %s%s\n", statsAddress, statsURL)
	return mgr.Stop
}
