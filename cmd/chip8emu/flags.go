package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"chip8emu/config"
)

const usage = `usage: chip8emu [flags] <rom>

Runs a CHIP-8 program. Keys 1-4, Q-R, A-F and Z-V drive the hex keypad;
Escape quits.

flags:
`

type options struct {
	configPath string
	backend    string
	cycle      time.Duration
	scale      int
	keys       string
	waitAnyKey bool
	mute       bool
	beep       string
	debug      bool
	statsview  string
	memviz     string

	// names of the flags given on the command line
	set map[string]bool

	rom string
}

var errMissingROM = errors.New("no program given")

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("chip8emu", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "read settings from a `file` (.toml, .yaml)")
	fs.StringVar(&opts.backend, "backend", config.BackendFyne, "display backend: fyne, sdl or term")
	fs.DurationVar(&opts.cycle, "cycle", 0, "time per machine cycle (default 1ms)")
	fs.IntVar(&opts.scale, "scale", 0, "window pixels per display pixel (default 10)")
	fs.StringVar(&opts.keys, "keys", "", "key `layout`: "+strings.Join(config.LayoutNames(), " or "))
	fs.BoolVar(&opts.waitAnyKey, "wait-any-key", false, "let FX0A resume on any key instead of key 0")
	fs.BoolVar(&opts.mute, "mute", false, "disable the alert sound")
	fs.StringVar(&opts.beep, "beep", "", "play a .wav or .mp3 `file` as the alert sound")
	fs.BoolVar(&opts.debug, "debug", false, "log every executed instruction")
	fs.StringVar(&opts.statsview, "statsview", "", "serve runtime statistics on `addr`")
	fs.StringVar(&opts.memviz, "memviz", "", "write a graphviz `file` of the machine state on exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errMissingROM
	}
	opts.rom = fs.Arg(0)

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	return opts, nil
}

// config loads the settings file, if any, and applies the flags given on
// the command line over it.
func (o options) config() (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}

	if o.set["backend"] {
		cfg.Backend = o.backend
	}
	if o.set["cycle"] {
		cfg.Cycle = config.Duration(o.cycle)
	}
	if o.set["scale"] {
		cfg.Scale = o.scale
	}
	if o.keys != "" {
		keys, err := config.Layout(o.keys)
		if err != nil {
			return cfg, err
		}
		cfg.Keys = keys
	}
	if o.waitAnyKey {
		cfg.WaitAnyKey = true
	}
	if o.mute {
		cfg.Audio.Enabled = false
	}
	if o.beep != "" {
		cfg.Audio.Sample = o.beep
	}
	if o.debug {
		cfg.LogLevel = "debug"
	}

	return cfg, cfg.Validate()
}
