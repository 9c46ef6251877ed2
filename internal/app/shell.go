// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/relabs-tech/imu_link/internal/config"
	"github.com/relabs-tech/imu_link/internal/sensors"
	"github.com/relabs-tech/imu_link/internal/uart"
)

const shellKey = "$pipeline"

// listPorts is swapped in tests.
var listPorts = uart.ListPorts

func pipelineFrom(c *ishell.Context) *Pipeline {
	return c.Get(shellKey).(*Pipeline)
}

func describeResult(p *Pipeline) string {
	res := p.Parser.Parse()
	if res.Bytes == 0 {
		return "empty window"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d bytes at %d: imu=%t ef=%t", res.Bytes, res.Offset, res.IMUValid, res.EFValid)
	if !res.Synced {
		b.WriteString(" no frame header")
	}
	if res.Overrun {
		b.WriteString(" OVERRUN")
	}
	return b.String()
}

// rawWindow takes the next window straight from the buffers. The parser
// never sees it.
func rawWindow(p *Pipeline) string {
	w := p.Buffers.Swap()
	if len(w.Data) == 0 {
		return "empty window"
	}
	head := fmt.Sprintf("buffer %d, %d bytes", w.Index, len(w.Data))
	if w.Overrun {
		head += " OVERRUN"
	}
	return head + "\n" + hex.Dump(w.Data)
}

func describePorts() string {
	ports, err := listPorts()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	if len(ports) == 0 {
		return "no serial ports found"
	}
	return strings.Join(ports, "\n")
}

var shellCmds = []*ishell.Cmd{
	{
		Name: "parse",
		Help: "parse the latest window",
		Func: func(c *ishell.Context) {
			c.Println(describeResult(pipelineFrom(c)))
		},
	},
	{
		Name: "print",
		Help: "print the current reading",
		Func: func(c *ishell.Context) {
			c.Println(pipelineFrom(c).Parser.Reading().String())
		},
	},
	{
		Name: "fixed",
		Help: "print the current reading in fixed point",
		Func: func(c *ishell.Context) {
			c.Println(formatFixed(pipelineFrom(c).Parser.Fixed()))
		},
	},
	{
		Name: "stats",
		Help: "print link counters",
		Func: func(c *ishell.Context) {
			c.Println(pipelineFrom(c).Stats().String())
		},
	},
	{
		Name: "ports",
		Help: "list serial ports",
		Func: func(c *ishell.Context) {
			c.Println(describePorts())
		},
	},
	{
		Name: "raw",
		Help: "hex dump the next window without parsing it",
		Func: func(c *ishell.Context) {
			c.Println(rawWindow(pipelineFrom(c)))
		},
	},
}

// RunShell runs the receive path and an interactive shell over it. With
// args, it runs them as one command and exits.
func RunShell(args ...string) error {
	cfg := config.Get()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, err := sensors.NewSource(cfg)
	if err != nil {
		return fmt.Errorf("shell: %w", err)
	}
	defer src.Close()

	p, err := NewPipeline(src, cfg)
	if err != nil {
		return fmt.Errorf("shell: %w", err)
	}
	p.Start(ctx)

	sh := ishell.New()
	sh.Set(shellKey, p)
	sh.SetPrompt("imu > ")
	for _, cmd := range shellCmds {
		sh.AddCmd(cmd)
	}

	if len(args) > 0 {
		return sh.Process(args...)
	}
	sh.Println("imu_link shell, type help for commands")
	sh.Run()
	return nil
}
