/*
DESCRIPTION
  av1dump is a command line tool that walks an IVF file and prints a
  summary of every OBU it contains, using the av1 and ivf packages.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package av1dump is a bare bones program for inspecting the OBU
// structure of an IVF-wrapped AV1 bitstream.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/av1/codec/av1"
	"github.com/ausocean/av1/container/ivf"
)

// Logging configuration, used only when -log-file is given; per spec.md
// §7 the core parser itself never logs.
const (
	logMaxSize   = 10 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
)

func main() {
	pathPtr := flag.String("path", "", "path to an IVF file containing AV1 OBUs")
	logFilePtr := flag.String("log-file", "", "optional path to write rotating structured logs to")
	flag.Parse()

	log := newLogger(*logFilePtr)
	defer log.Sync()

	if *pathPtr == "" {
		fmt.Fprintln(os.Stderr, "av1dump: -path is required")
		os.Exit(2)
	}

	if err := dump(*pathPtr, log); err != nil {
		log.Errorw("dump failed", "error", err.Error())
		os.Exit(1)
	}
}

// newLogger returns a zap.SugaredLogger that writes development-formatted
// logs to stderr and, when logFile is non-empty, additionally tees them
// to a rotating lumberjack-backed file.
func newLogger(logFile string) *zap.SugaredLogger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.InfoLevel)}

	if logFile != "" {
		fileLog := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(fileLog), zap.InfoLevel))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

// dump opens path as an IVF file, iterates its frames, and feeds each
// frame's payload, in order, to the OBU Framer of one av1.Parser created
// for the whole file, logging a summary per OBU.
func dump(path string, log *zap.SugaredLogger) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "could not open ivf file")
	}
	defer f.Close()

	r, err := ivf.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "could not read ivf header")
	}
	log.Infow("opened ivf file",
		"width", r.Header.Width,
		"height", r.Header.Height,
		"num_frames", r.Header.NumFrames,
		"fourcc", string(r.Header.FourCC[:]),
	)
	if !r.Header.IsAV1() {
		return errors.Errorf("fourcc %q is not AV01", r.Header.FourCC)
	}

	p := av1.NewParser()

	frameIdx := 0
	for {
		fh, payload, err := r.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "could not read ivf frame")
		}

		if err := dumpFrame(p, payload, log); err != nil {
			return errors.Wrapf(err, "frame %d (timestamp %d)", frameIdx, fh.Timestamp)
		}
		frameIdx++
	}

	return nil
}

// dumpFrame walks every OBU packed into one IVF frame payload, logging a
// summary line per OBU.
func dumpFrame(p *av1.Parser, payload []byte, log *zap.SugaredLogger) error {
	for len(payload) > 0 {
		obu, consumed, err := p.ParseOBU(payload)
		if err != nil {
			return err
		}
		log.Infow("parsed obu",
			"type", obu.Header.Type.String(),
			"size", obu.Header.SizeBytes,
			"temporal_id", obu.Header.TemporalID,
			"spatial_id", obu.Header.SpatialID,
		)
		if obu.SequenceHeader != nil {
			log.Infow("sequence header",
				"seq_profile", obu.SequenceHeader.SeqProfile,
				"max_frame_width", obu.SequenceHeader.MaxFrameWidthMinus1+1,
				"max_frame_height", obu.SequenceHeader.MaxFrameHeightMinus1+1,
				"operating_points", len(obu.SequenceHeader.OperatingPoints),
			)
		}
		if obu.FrameHeader != nil {
			log.Infow("frame header",
				"frame_type", obu.FrameHeader.FrameType,
				"show_frame", obu.FrameHeader.ShowFrame,
			)
		}
		payload = payload[consumed:]
	}
	return nil
}
