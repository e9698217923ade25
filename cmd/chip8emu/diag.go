package main

import (
	"log/slog"
	"os"

	"chip8emu/chip8"

	"github.com/bradleyjkemp/memviz"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// launchStatsview serves runtime statistics until the process exits.
func launchStatsview(addr string, logger *slog.Logger) {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()

	logger.Info("stats server started", "url", "http://"+addr+"/debug/statsview")
}

// dumpState writes the final machine registers as a graphviz graph.
func dumpState(path string, cpu *chip8.Processor) error {
	if cpu == nil {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	state := cpu.Snapshot()
	memviz.Map(f, &state)

	return f.Close()
}
