package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/born-ml/archid/detect"
	"github.com/born-ml/archid/internal/config"
)

// report is one line of detect output.
type report struct {
	File     string   `json:"file"`
	Arch     string   `json:"arch,omitempty"`
	Purpose  string   `json:"purpose,omitempty"`
	SubType  string   `json:"sub_type,omitempty"`
	Scale    int      `json:"scale,omitempty"`
	In       int      `json:"in_channels,omitempty"`
	Out      int      `json:"out_channels,omitempty"`
	Features int      `json:"features,omitempty"`
	Blocks   int      `json:"blocks,omitempty"`
	Rule     string   `json:"rule,omitempty"`
	Shadowed []string `json:"shadowed,omitempty"`
	Fallback bool     `json:"fallback,omitempty"`
	Wrapper  string   `json:"wrapper,omitempty"`
	Error    string   `json:"error,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Hints    []string `json:"hints,omitempty"`
}

func cmdDetect(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("detect", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print one JSON object per file")
	noHints := fs.Bool("no-hints", false, "omit similar signature keys from errors")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "archid detect: no files given")
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "archid: config: %v\n", err)
		return exitFailure
	}
	if *asJSON {
		cfg.Output.Format = "json"
	}
	if *noHints {
		cfg.Output.Hints = false
	}

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "archid: %v\n", err)
		return exitFailure
	}
	logger = logger.With(slog.String("run_id", uuid.NewString()))
	d := detect.New(detect.WithLogger(logger))

	out := newPrinter(cfg.Output, stdout)
	status := exitOK
	for _, path := range fs.Args() {
		r := detectFile(d, logger, path, cfg.Output.Hints)
		if r.Error != "" {
			status = exitFailure
		}
		if err := out.print(r); err != nil {
			fmt.Fprintf(stderr, "archid: write output: %v\n", err)
			return exitFailure
		}
	}
	return status
}

func detectFile(d *detect.Detector, logger *slog.Logger, path string, hints bool) report {
	r := report{File: path}
	log := logger.With(slog.String("file", path))

	sd, err := detect.OpenCheckpoint(path)
	if err != nil {
		log.Error("failed to read checkpoint", slog.Any("error", err))
		r.Error = err.Error()
		return r
	}

	res, err := d.DetectAndLoad(sd)
	if err != nil {
		var de *detect.DetectionError
		if errors.As(err, &de) {
			r.Kind = de.Kind.String()
			if !hints {
				stripped := *de
				stripped.Hints = nil
				err = &stripped
			} else {
				r.Hints = de.Hints
			}
		}
		log.Warn("detection failed", slog.Any("error", err))
		r.Error = err.Error()
		return r
	}

	m := res.Model
	r.Arch = res.Tag.String()
	r.Purpose = m.Purpose.String()
	r.SubType = m.SubType
	r.Scale = m.Scale
	r.In, r.Out = m.InChannels, m.OutChannels
	r.Features = m.Features
	r.Blocks = m.Blocks
	r.Rule = res.Rule
	r.Shadowed = res.Shadowed
	r.Fallback = res.Fallback
	r.Wrapper = res.Wrapper
	log.Info("detected architecture", slog.String("arch", r.Arch), slog.Int("scale", r.Scale))
	return r
}

type printer struct {
	w    io.Writer
	json *json.Encoder

	name lipgloss.Style
	arch lipgloss.Style
	dim  lipgloss.Style
	fail lipgloss.Style
}

func newPrinter(cfg config.OutputConfig, w io.Writer) *printer {
	p := &printer{w: w}
	if strings.EqualFold(cfg.Format, "json") {
		p.json = json.NewEncoder(w)
		return p
	}

	re := lipgloss.NewRenderer(w)
	p.name = re.NewStyle().Bold(true)
	p.arch = re.NewStyle().Foreground(lipgloss.Color("10"))
	p.dim = re.NewStyle().Faint(true)
	p.fail = re.NewStyle().Foreground(lipgloss.Color("9"))
	return p
}

func (p *printer) print(r report) error {
	if p.json != nil {
		return p.json.Encode(r)
	}

	if r.Error != "" {
		_, err := fmt.Fprintf(p.w, "%s: %s\n", p.name.Render(r.File), p.fail.Render("error: "+r.Error))
		return err
	}

	arch := r.Arch
	if r.SubType != "" {
		arch += " (" + r.SubType + ")"
	}
	detail := fmt.Sprintf("%s, scale x%d, in=%d out=%d nf=%d", r.Purpose, r.Scale, r.In, r.Out, r.Features)
	source := "rule " + r.Rule
	if r.Fallback {
		source = "fallback"
	}
	if len(r.Shadowed) > 0 {
		source += ", shadows " + strings.Join(r.Shadowed, ", ")
	}
	if r.Wrapper != "" {
		source += ", unwrapped " + r.Wrapper
	}
	_, err := fmt.Fprintf(p.w, "%s: %s %s %s\n",
		p.name.Render(r.File), p.arch.Render(arch), detail, p.dim.Render("["+source+"]"))
	return err
}

func cmdRules(stdout io.Writer) int {
	for _, rule := range detect.DefaultRegistry().Rules() {
		fmt.Fprintf(stdout, "%2d  %-14s %-19s %s\n", rule.Priority, rule.Name, rule.Tag, rule.Match)
	}
	fmt.Fprintf(stdout, " -  %-14s %-19s %s\n", "fallback", detect.ESRGAN, "(no rule matched)")
	return exitOK
}

func cmdConfig(stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "archid: config: %v\n", err)
		return exitFailure
	}
	if err := toml.NewEncoder(stdout).Encode(cfg); err != nil {
		fmt.Fprintf(stderr, "archid: encode config: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
