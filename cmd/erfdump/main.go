/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// erfdump prints the decoded records of ERF capture files.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/pflag"

	"github.com/zoomoid/go-erf"
)

func main() {
	fs := newFlagSet()
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := newLogger(cfg.Log)
	erf.SetLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = erf.IntoContext(ctx, logger)

	if err := run(ctx, cfg, fs.Args(), os.Stdout); err != nil {
		logger.Error(err, "erfdump failed")
		os.Exit(1)
	}
}

func newLogger(cfg LogConfig) logr.Logger {
	var w io.Writer = os.Stderr
	if cfg.Console {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Verbosity > 0 {
		// logr's V(n) is zerolog level -n
		level = zerolog.Level(-cfg.Verbosity)
		zerolog.SetGlobalLevel(level)
		zerologr.SetMaxV(cfg.Verbosity)
	}

	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return zerologr.New(&zl)
}

func run(ctx context.Context, cfg *Config, files []string, out io.Writer) error {
	logger := erf.FromContext(ctx)

	reg, err := loadRegistry(cfg.Schema)
	if err != nil {
		return err
	}

	if cfg.DumpSchema {
		return erf.WriteYAML(out, reg.Sections(), reg.Tags())
	}

	if len(files) == 0 {
		return errors.New("no input files")
	}

	metrics := prometheus.NewRegistry()
	if cfg.Metrics {
		for _, c := range erf.Collectors() {
			if err := metrics.Register(c); err != nil {
				return err
			}
		}
	}

	var mu sync.Mutex
	bw := bufio.NewWriter(out)

	p := pool.New().WithMaxGoroutines(cfg.Workers).WithErrors().WithContext(ctx)
	for _, file := range files {
		file := file
		p.Go(func(ctx context.Context) error {
			var buf bytes.Buffer
			n, err := dumpFile(ctx, reg, cfg, file, &buf)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			mu.Lock()
			defer mu.Unlock()
			_, err = buf.WriteTo(bw)
			logger.Info("decoded file", "file", file, "records", n)
			return err
		})
	}
	err = p.Wait()

	if ferr := bw.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}

	if cfg.Metrics {
		return writeMetrics(metrics, out)
	}
	return nil
}

func loadRegistry(cfg SchemaConfig) (*erf.SchemaRegistry, error) {
	if cfg.Extra == "" {
		return erf.DefaultRegistry(), nil
	}

	f, err := os.Open(cfg.Extra)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	export, err := erf.ReadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", cfg.Extra, err)
	}
	reg, err := erf.NewRegistryWithSections(export.Sections, export.Tags...)
	if err != nil {
		return nil, fmt.Errorf("failed to apply schema %s: %w", cfg.Extra, err)
	}
	return reg, nil
}

type jsonRecord struct {
	File string     `json:"file"`
	Seq  erf.SeqNum `json:"seq"`
	Tree *erf.Tree  `json:"record"`
}

// dumpFile decodes all records of a capture in a session of its own. It returns the number of
// records decoded.
func dumpFile(ctx context.Context, reg *erf.SchemaRegistry, cfg *Config, file string, out io.Writer) (int, error) {
	logger := erf.FromContext(ctx, "file", file)
	ctx = erf.IntoContext(ctx, logger)

	r, err := erf.OpenFile(file)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	records, err := erf.ReadFull(r)
	if err != nil {
		return 0, err
	}

	decoder := erf.NewDecoder(reg, cfg.Decoder.Options())

	if cfg.Decoder.TwoPass {
		for _, rec := range records {
			if err := decoder.Decode(ctx, rec, erf.DiscardSink); err != nil {
				return 0, err
			}
			rec.FirstVisit = false
		}
	}

	enc := json.NewEncoder(out)
	tree := &erf.Tree{}
	for _, rec := range records {
		tree.Reset()
		if err := decoder.Decode(ctx, rec, tree); err != nil {
			return 0, err
		}

		switch cfg.Format {
		case formatJSON:
			err = enc.Encode(jsonRecord{File: file, Seq: rec.Seq, Tree: tree})
		default:
			_, err = fmt.Fprintf(out, "%s: record %d\n%s\n", file, rec.Seq, tree)
		}
		if err != nil {
			return 0, err
		}
	}

	sources, anchors := decoder.Index().Len()
	logger.V(1).Info("session finished", "sources", sources, "anchors", anchors)
	return len(records), nil
}

func writeMetrics(g prometheus.Gatherer, out io.Writer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(out, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
