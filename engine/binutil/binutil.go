// Package binutil holds the process setup shared by the battlezone binaries
package binutil

import (
	"runtime"

	"github.com/cogoffice/battlezone/engine/gwlog"
)

// SetupGWLog setup the log system of the component
func SetupGWLog(component string, logLevel string, logFile string, logStderr bool) {
	gwlog.SetSource(component)
	gwlog.Infof("Set log level to %s", logLevel)
	gwlog.SetLevel(gwlog.StringToLevel(logLevel))

	outputs := make([]string, 0, 2)
	if logFile != "" {
		outputs = append(outputs, logFile)
	}
	if logStderr {
		outputs = append(outputs, "stderr")
	}
	if len(outputs) == 0 {
		gwlog.Warnf("no log output configured, logging to stderr")
		outputs = append(outputs, "stderr")
	}
	gwlog.SetOutput(outputs)
}

// SetupGoMaxProcs sets GOMAXPROCS if n is positive
func SetupGoMaxProcs(n int) {
	if n > 0 {
		gwlog.Infof("Set GOMAXPROCS to %d", n)
		runtime.GOMAXPROCS(n)
	}
}
