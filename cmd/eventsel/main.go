// eventsel loads events from an export manifest or an ICS file and prints the
// selection made by a query string.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cyp0633/libeventcal/category"
	"github.com/cyp0633/libeventcal/collector"
	"github.com/cyp0633/libeventcal/event"
	"github.com/cyp0633/libeventcal/internal/config"
	"github.com/cyp0633/libeventcal/recurrence"
	"github.com/cyp0633/libeventcal/storage"
	"github.com/cyp0633/libeventcal/storage/manifest"
	"github.com/cyp0633/libeventcal/storage/memory"
	"github.com/cyp0633/libeventcal/timerange"
	"golang.org/x/text/language"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("eventsel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "path to config file")
		manifestF  = fs.String("manifest", "", "export manifest to load")
		icsF       = fs.String("ics", "", "iCalendar file to load")
		folder     = fs.String("folder", "", "repository folder for ICS events")
		query      = fs.String("query", "", "query parameter string")
		window     = fs.String("range", "", "time window around now: date, week, month, year, upcoming or all")
		format     = fs.String("format", "", "output format: text or ics")
		location   = fs.String("location", "", "IANA time zone for dates")
		facets     = fs.String("facets", "", "print category counts below this root")
		verbose    = fs.Bool("v", false, "verbose logging")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFrom(*configPath); err != nil {
			fmt.Fprintf(stderr, "failed to load config: %v\n", err)
			return 1
		}
	}
	override(&cfg.Source.Manifest, *manifestF)
	override(&cfg.Source.ICS, *icsF)
	override(&cfg.Source.Folder, *folder)
	override(&cfg.Query, *query)
	override(&cfg.Range, *window)
	override(&cfg.Output.Format, *format)
	override(&cfg.Location, *location)
	override(&cfg.Output.Facets, *facets)
	if *verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 1
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := execute(ctx, cfg, logger, stdout); err != nil {
		logger.Error("selection failed", "error", err)
		var cerr *collector.Error
		if errors.As(err, &cerr) {
			return 2
		}
		return 1
	}
	return 0
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func execute(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	loc, _ := cfg.TimeLocation()
	tag, _ := cfg.LanguageTag()
	engineConfig, _ := cfg.EngineConfig()
	engineConfig.Logger = logger
	schema := cfg.StorageSchema()

	store := memory.New()
	typ := store.RegisterType(schema.ResourceType)

	n, err := load(ctx, cfg.Source, store, typ, schema, loc)
	if err != nil {
		return err
	}
	logger.Info("loaded events", "items", n, "manifest", cfg.Source.Manifest, "ics", cfg.Source.ICS)

	c := collector.New(store, collector.Options{
		Schema:   schema,
		Engine:   recurrence.NewEngineWithConfig(engineConfig),
		Logger:   logger,
		Location: loc,
		Locale:   tag,
	})
	q, err := collector.ParseParams(cfg.QueryString(), loc, logger)
	if err != nil {
		return err
	}
	if kind, ok := cfg.RangeKind(); ok {
		ref := time.Now()
		if kind == timerange.CatchAll {
			ref = time.Time{}
		}
		r := timerange.Of(kind, ref, loc)
		q.TimeStart, q.TimeEnd = r.Start, r.End
		logger.Debug("using time range", "range", r)
	}

	res, err := c.SelectQuery(ctx, q)
	if err != nil {
		return err
	}
	logger.Debug("query complete", "total", res.Total, "returned", len(res.Items))

	listed := res.Items
	var undated []event.Entry
	if len(cfg.Output.UndatedFolders) > 0 || len(cfg.Output.ExcludedFolders) > 0 {
		p, err := res.Partition(ctx, store, cfg.Output.UndatedFolders, cfg.Output.ExcludedFolders, time.Now())
		if err != nil {
			return err
		}
		logger.Debug("partitioned result",
			"dated", len(p.Dated), "undated", len(p.Undated), "excluded", len(p.Excluded), "expired", len(p.Expired))
		listed, undated = p.Dated, p.Undated
	}

	switch cfg.Output.Format {
	case "ics":
		exported := &collector.Result{Items: append(append(listed[:0:0], listed...), undated...), Total: res.Total, Categories: res.Categories}
		if len(exported.Items) == 0 {
			logger.Warn("nothing to export")
			return nil
		}
		return collector.WriteICS(out, exported)
	default:
		if err := writeText(out, listed, undated, res.Total, loc); err != nil {
			return err
		}
		if cfg.Output.Facets != "" {
			fs := res.Facets(cfg.Output.Facets, nil, tag)
			if err := writeFacets(out, "categories below "+fs.Root, fs); err != nil {
				return err
			}
		}
		if len(cfg.Output.TopCategories) > 0 {
			fs, err := res.AssignedFacets(ctx, store, cfg.Output.TopCategories, nil)
			if err != nil {
				return err
			}
			return writeFacets(out, "assigned categories", fs)
		}
		return nil
	}
}

// load fills store from the manifest or ICS source and returns the number of
// items read.
func load(ctx context.Context, src config.SourceConfig, store *memory.Store, typ storage.TypeID, schema storage.Schema, loc *time.Location) (int, error) {
	switch {
	case src.Manifest != "":
		return manifest.LoadFile(ctx, src.Manifest, store)
	case src.ICS != "":
		f, err := os.Open(src.ICS)
		if err != nil {
			return 0, fmt.Errorf("open calendar: %w", err)
		}
		defer f.Close()

		items, err := storage.ItemsFromICS(f, src.Folder, typ, schema, loc)
		if err != nil {
			return 0, err
		}
		for _, it := range items {
			if err := store.Put(ctx, it); err != nil {
				return 0, fmt.Errorf("store %s: %w", it.Path, err)
			}
		}
		return len(items), nil
	}
	return 0, errors.New("no event source configured: set a manifest or an ics file")
}

func writeText(out io.Writer, dated, undated []event.Entry, total int, loc *time.Location) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range dated {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", formatStart(e, loc), formatEnd(e, loc), e.Title, strings.Join(e.CategoryList(), ","))
	}
	if len(undated) > 0 {
		fmt.Fprintf(tw, "\nundated\n")
		for _, e := range undated {
			fmt.Fprintf(tw, "%s\t%s\n", e.Title, strings.Join(e.CategoryList(), ","))
		}
	}
	fmt.Fprintf(tw, "\n%d of %d events\n", len(dated)+len(undated), total)
	return tw.Flush()
}

func formatStart(e event.Entry, loc *time.Location) string {
	t := timerange.Time(e.StartTime(), loc)
	if e.IsDateOnly() {
		return t.Format(time.DateOnly)
	}
	return t.Format("2006-01-02 15:04")
}

func formatEnd(e event.Entry, loc *time.Location) string {
	if !e.HasEnd() {
		return "-"
	}
	t := timerange.Time(e.EndTime(), loc)
	if e.IsDateOnly() {
		return t.Format(time.DateOnly)
	}
	return t.Format("2006-01-02 15:04")
}

func writeFacets(out io.Writer, heading string, fs *category.FacetSet) error {
	fs.Sort(category.SortByRelevancy, language.Und)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\n%s\n", heading)
	for _, f := range fs.Facets {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", f.Path, f.Title, f.Count)
	}
	return tw.Flush()
}
