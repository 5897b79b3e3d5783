// +build !windows

package binutil

import (
	"os"

	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/sevlyar/go-daemon"
)

// Daemonize re-runs the process in the background. The parent exits, the child gets the context to release.
func Daemonize(pidFile string) *daemon.Context {
	context := &daemon.Context{
		PidFileName: pidFile,
		PidFilePerm: 0644,
	}
	child, err := context.Reborn()

	if err != nil {
		// daemonize failed
		gwlog.Panicf("daemonize failed: %v", err)
	}

	if child != nil {
		gwlog.Infof("run in daemon mode, pid %d", child.Pid)
		os.Exit(0)
		return nil
	}
	return context
}
