// Command battlezone runs the game and the websocket gate of the battle zones in one process
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/cogoffice/battlezone/components/game"
	"github.com/cogoffice/battlezone/components/gate"
	"github.com/cogoffice/battlezone/engine/binutil"
	"github.com/cogoffice/battlezone/engine/config"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"golang.org/x/sync/errgroup"
)

var args struct {
	configFile      string
	logLevel        string
	runInDaemonMode bool
	pidFile         string
}

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, will override log level in config")
	flag.BoolVar(&args.runInDaemonMode, "d", false, "run in daemon mode")
	flag.StringVar(&args.pidFile, "pid", "battlezone.pid", "pid file in daemon mode")
	flag.Parse()
}

func main() {
	parseArgs()

	if args.runInDaemonMode {
		daemoncontext := binutil.Daemonize(args.pidFile)
		defer daemoncontext.Release()
	}

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}
	cfg := config.Get()

	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = cfg.Game.LogLevel
		if cfg.Game.Debug {
			logLevel = "debug"
		}
	}
	binutil.SetupGWLog("battlezone", logLevel, cfg.Game.LogFile, cfg.Game.LogStderr)
	defer gwlog.Sync()
	binutil.SetupGoMaxProcs(cfg.Game.GoMaxProcs)
	gwlog.Infof("Read config %s:\n%s", config.GetConfigFilePath(), config.DumpPretty(cfg))

	if err := run(cfg); err != nil {
		gwlog.Errorf("battlezone stopped: %+v", err)
		gwlog.Sync()
		os.Exit(1)
	}
	gwlog.Infof("battlezone stopped")
}

func run(cfg *config.BattleZoneConfig) error {
	gateService, err := gate.New(&cfg.Gate)
	if err != nil {
		return err
	}
	gameService, err := game.New(cfg, gateService)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gameService.Run(ctx)
	})
	g.Go(func() error {
		return gateService.ListenAndServe(ctx, gameService)
	})
	return g.Wait()
}
