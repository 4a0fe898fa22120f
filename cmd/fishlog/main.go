// Command fishlog lists and edits the fishing log kept by the configured
// storage backend.
//
//	fishlog species
//	fishlog specimens
//	fishlog trips
//	fishlog add-species -name Bream -weight 4400 [-fresh]
//	fishlog complete -field location|method|bait|weather
//
// Storage is selected through FISHLOG_* environment variables (see internal/config).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fishlog/internal/codec"
	"fishlog/internal/config"
	"fishlog/internal/core"
	"fishlog/internal/logging"
	"fishlog/internal/store"
	"fishlog/pkg/domain"
)

var (
	exitFunc   = os.Exit
	loadConfig = config.Load
)

const shutdownGrace = 5 * time.Second

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: fishlog <species|specimens|trips|add-species|complete> [flags]")
}

func cli(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	cmd, rest := args[0], args[1:]
	cfg, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	logger := logging.New(cfg.Log.Level, stderr)

	var command func(ctx context.Context, s domain.PersistentStore) error
	switch cmd {
	case "species":
		command = func(ctx context.Context, s domain.PersistentStore) error { return listSpecies(ctx, s, stdout) }
	case "specimens":
		command = func(ctx context.Context, s domain.PersistentStore) error { return listSpecimens(ctx, s, stdout) }
	case "trips":
		command = func(ctx context.Context, s domain.PersistentStore) error { return listTrips(ctx, s, stdout) }
	case "add-species":
		fs := flag.NewFlagSet("add-species", flag.ContinueOnError)
		fs.SetOutput(stderr)
		name := fs.String("name", "", "species name")
		weight := fs.Int("weight", 0, "registered weight in grams")
		fresh := fs.Bool("fresh", false, "fresh-water species")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		if *name == "" || *weight < 0 {
			_, _ = fmt.Fprintln(stderr, "add-species: -name required and -weight must not be negative")
			return 2
		}
		command = func(ctx context.Context, s domain.PersistentStore) error {
			sp := domain.NewSpecies().WithName(*name).WithRegWeight(*weight).WithFreshWater(*fresh)
			saved, err := s.SaveSpecies(ctx, []domain.Species{sp})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(stdout, saved[0].ID)
			return err
		}
	case "complete":
		fs := flag.NewFlagSet("complete", flag.ContinueOnError)
		fs.SetOutput(stderr)
		field := fs.String("field", string(domain.FieldLocation), "location|method|bait|weather")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		command = func(ctx context.Context, s domain.PersistentStore) error {
			values, err := s.AutoComplete(ctx, domain.CompletionField(*field))
			if err != nil {
				return err
			}
			for _, v := range values {
				if _, err := fmt.Fprintln(stdout, v); err != nil {
					return err
				}
			}
			return nil
		}
	default:
		usage(stderr)
		return 2
	}

	if err := run(context.Background(), cfg, logger, command); err != nil {
		_, _ = fmt.Fprintf(stderr, "fishlog %s: %v\n", cmd, err)
		return 1
	}
	return 0
}

// run opens storage, hands a lazily loaded store to command and drains the
// storage backend before returning.
func run(ctx context.Context, cfg *config.Config, logger logging.Logger, command func(context.Context, domain.PersistentStore) error) (err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	stopMetrics, err := serveMetrics(cfg.Metrics.Addr, reg, logger)
	if err != nil {
		return err
	}
	defer stopMetrics()

	provider, shutdown, err := core.OpenProvider(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer func() {
		grace := shutdownGrace
		if cfg.Remote.DrainTimeout > grace {
			grace = cfg.Remote.DrainTimeout
		}
		sctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if serr := shutdown(sctx); serr != nil {
			logger.Error("storage shutdown", "error", serr)
			err = errors.Join(err, serr)
		}
	}()

	lazy := store.OpenAsync(ctx, provider, store.WithLogger(logger))
	return command(ctx, lazy)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger logging.Logger) (func(), error) {
	if addr == "" {
		return func() {}, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func listSpecies(ctx context.Context, s domain.PersistentStore, w io.Writer) error {
	species, err := s.ListSpecies(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tREG WEIGHT\tFRESH WATER")
	for _, sp := range species {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", sp.ID, sp.Name, sp.RegWeight, sp.FreshWater)
	}
	return tw.Flush()
}

func listSpecimens(ctx context.Context, s domain.PersistentStore, w io.Writer) error {
	specimens, err := s.ListSpecimens(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSPECIES\tWEIGHT\tRATIO\tLENGTH\tINSTANT\tLOCATION")
	for _, sp := range specimens {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%.1f\t%s\t%s\n",
			sp.ID, sp.Species.Name, sp.Weight, sp.Ratio(), sp.Length, codec.FormatInstant(sp.Instant), sp.Location)
	}
	return tw.Flush()
}

func listTrips(ctx context.Context, s domain.PersistentStore, w io.Writer) error {
	trips, err := s.ListTrips(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTART\tEND\tSPECIMENS\tDESCRIPTION")
	for _, t := range trips {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			t.ID, codec.FormatDate(t.StartDate), codec.FormatDate(t.EndDate), len(t.SpecimenIDs()), t.Description)
	}
	return tw.Flush()
}
