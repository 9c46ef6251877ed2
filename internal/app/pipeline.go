// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/imu_link/internal/config"
	"github.com/relabs-tech/imu_link/internal/imu"
	"github.com/relabs-tech/imu_link/internal/rxbuf"
	"github.com/relabs-tech/imu_link/internal/uart"
)

// Pipeline is the receive path from a byte source to the current reading:
// pump -> FIFO -> receiver -> double buffer -> parser.
type Pipeline struct {
	FIFO     *uart.FIFO
	Buffers  *rxbuf.DoubleBuffer
	Receiver *uart.Receiver
	Pump     *uart.Pump
	Parser   *imu.Parser
}

// LinkStats is what the producer publishes on the stats topic.
type LinkStats struct {
	imu.Stats
	FIFOPushed  uint64 `json:"fifo_pushed"`
	FIFODropped uint64 `json:"fifo_dropped"`
	Interrupts  uint64 `json:"interrupts"`
}

func (s LinkStats) String() string {
	return fmt.Sprintf("%s fifo=%d dropped=%d irq=%d",
		s.Stats, s.FIFOPushed, s.FIFODropped, s.Interrupts)
}

// NewPipeline wires a pipeline reading from src using the receive path
// settings in cfg.
func NewPipeline(src io.Reader, cfg *config.Config) (*Pipeline, error) {
	fifo, err := uart.NewFIFO(cfg.IMUFIFOSize)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	db := &rxbuf.DoubleBuffer{}
	return &Pipeline{
		FIFO:     fifo,
		Buffers:  db,
		Receiver: uart.NewReceiver(fifo, db),
		Pump: uart.NewPump(src, fifo, uart.PumpOptions{
			ReadChunk: cfg.IMUReadChunk,
			RxTimeout: time.Duration(cfg.IMURxTimeoutUS) * time.Microsecond,
		}),
		Parser: imu.NewParser(db, imu.ParserOptions{Resync: cfg.IMUResync}),
	}, nil
}

// Start runs the pump and the receiver. Each of them sends its result on
// the returned channel when it stops: the pump sends nil when the source
// reaches EOF, and both send ctx.Err() once ctx is done. The channel holds
// both results, so callers may read just the first.
func (p *Pipeline) Start(ctx context.Context) <-chan error {
	errc := make(chan error, 2)
	go func() {
		errc <- p.Receiver.Run(ctx)
	}()
	go func() {
		errc <- p.Pump.Run(ctx)
	}()
	return errc
}

// Stats snapshots every counter along the path.
func (p *Pipeline) Stats() LinkStats {
	pushed, dropped := p.FIFO.Counters()
	return LinkStats{
		Stats:       p.Parser.Stats(),
		FIFOPushed:  pushed,
		FIFODropped: dropped,
		Interrupts:  p.Receiver.Runs(),
	}
}
