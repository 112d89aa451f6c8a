// Package cmd wires the daemon's cobra command-line interface: one
// command, one required config-file argument, a handful of profiling
// flags, and a
// signal handler that requests a clean shutdown.
package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/ccnxgo/ccnd/core"
	"github.com/ccnxgo/ccnd/daemon"
	"github.com/spf13/cobra"
)

var config = core.DefaultConfig()

// CmdCCND is the daemon's top-level command: ccnd CONFIG-FILE.
var CmdCCND = &cobra.Command{
	Use:     "ccnd CONFIG-FILE",
	Short:   "CCNx content-centric networking forwarder",
	Version: "0.1.0",
	Args:    cobra.ExactArgs(1),
	RunE:    run,
}

func init() {
	CmdCCND.Flags().StringVar(&config.Core.CpuProfile, "cpu-profile", "", "write CPU profile to file")
	CmdCCND.Flags().StringVar(&config.Core.MemProfile, "mem-profile", "", "write memory profile to file")
	CmdCCND.Flags().StringVar(&config.Core.BlockProfile, "block-profile", "", "write block profile to file")
}

func run(cc *cobra.Command, args []string) error {
	configFile := args[0]
	config.Core.BaseDir = filepath.Dir(configFile)

	if err := core.ReadYaml(config, configFile); err != nil {
		return err
	}
	config.ApplyEnv()

	stopProfiling, err := startProfiling(config)
	if err != nil {
		return err
	}
	defer stopProfiling()

	core.ResetQuit()
	d, err := daemon.New(config)
	if err != nil {
		return err
	}
	if err := d.ListenAndServe(); err != nil {
		return err
	}

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChannel
		core.Log.Info(d, "received signal, shutting down", "signal", sig)
		core.RequestQuit()
	}()

	return d.Run()
}

// startProfiling enables whichever of the three profile flags the
// config requests, returning a func that flushes and closes them all.
func startProfiling(cfg *core.Config) (func(), error) {
	var files []*os.File

	if p := cfg.Core.CpuProfile; p != "" {
		f, err := os.Create(p)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, err
		}
		files = append(files, f)
	}

	if p := cfg.Core.BlockProfile; p != "" {
		runtime.SetBlockProfileRate(1)
	}

	memProfile := cfg.Core.MemProfile
	blockProfile := cfg.Core.BlockProfile

	return func() {
		if cfg.Core.CpuProfile != "" {
			pprof.StopCPUProfile()
		}
		if memProfile != "" {
			if f, err := os.Create(memProfile); err == nil {
				pprof.WriteHeapProfile(f)
				f.Close()
			}
		}
		if blockProfile != "" {
			if f, err := os.Create(blockProfile); err == nil {
				pprof.Lookup("block").WriteTo(f, 0)
				f.Close()
			}
		}
		for _, f := range files {
			f.Close()
		}
	}, nil
}
