package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ytdb/internal/config"
	"ytdb/internal/contentid"
	"ytdb/internal/deps"
	"ytdb/internal/failure"
	"ytdb/internal/ingest"
	"ytdb/internal/journal"
	"ytdb/internal/ledger"
	"ytdb/internal/preflight"
	"ytdb/internal/services"
	"ytdb/internal/services/ytdlp"
	"ytdb/internal/store"
)

type downloadOptions struct {
	input         string
	idFile        string
	outputDir     string
	target        string
	failedFile    string
	skipKinds     []string
	verbose       bool
	cookies       string
	sleepRequests int
	sleepInterval int
	noJournal     bool
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var opts downloadOptions

	cmd := &cobra.Command{
		Use:   "download [ids...]",
		Short: "Fetch assets for a list of ids into the store",
		Long: `Fetch one asset per id into the sharded store.

Ids come from positional arguments (default), a file (--input file --id-file
PATH, plain text or a JSON array) or standard input (--input stdin). Ids that
previously failed with a skipped failure kind are not retried.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}
			return runDownload(cmd, ctx, cfg, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", string(contentid.ModeArgs), "Id source: args, file or stdin")
	flags.StringVarP(&opts.idFile, "id-file", "f", "", "File of ids for --input file")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "Store root (must exist)")
	flags.StringVarP(&opts.target, "type", "t", "", "Target type: audio or video")
	flags.StringVar(&opts.failedFile, "failed-file", "", "Failure ledger path")
	flags.StringSliceVar(&opts.skipKinds, "failed-skip-type", nil, "Failure kinds not retried (comma separated)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.cookies, "cookies", "", "Cookies file passed to yt-dlp")
	flags.IntVar(&opts.sleepRequests, "sleep-requests", 0, "Seconds yt-dlp sleeps between requests")
	flags.IntVar(&opts.sleepInterval, "sleep-interval", 0, "Seconds yt-dlp sleeps before each download")
	flags.BoolVar(&opts.noJournal, "no-journal", false, "Do not record attempts in the journal")

	return cmd
}

// apply copies explicitly set flags over cfg and re-validates the result.
func (o downloadOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		expanded, err := config.ExpandPath(o.outputDir)
		if err != nil {
			return fmt.Errorf("resolve output dir: %w", err)
		}
		cfg.Paths.OutputDir = expanded
	}
	if flags.Changed("failed-file") {
		expanded, err := config.ExpandPath(o.failedFile)
		if err != nil {
			return fmt.Errorf("resolve failed file: %w", err)
		}
		cfg.Paths.FailedFile = expanded
	}
	if flags.Changed("cookies") {
		expanded, err := config.ExpandPath(o.cookies)
		if err != nil {
			return fmt.Errorf("resolve cookies file: %w", err)
		}
		cfg.Fetch.CookiesFile = expanded
	}
	if flags.Changed("type") {
		cfg.Download.Type = strings.ToLower(strings.TrimSpace(o.target))
	}
	if flags.Changed("failed-skip-type") {
		kinds := make([]string, 0, len(o.skipKinds))
		for _, kind := range o.skipKinds {
			kinds = append(kinds, strings.ToLower(strings.TrimSpace(kind)))
		}
		cfg.Download.SkipKinds = kinds
	}
	if flags.Changed("sleep-requests") {
		cfg.Fetch.SleepRequests = o.sleepRequests
	}
	if flags.Changed("sleep-interval") {
		cfg.Fetch.SleepInterval = o.sleepInterval
	}
	if o.noJournal {
		cfg.Journal.Enabled = false
	}
	return cfg.Validate()
}

func (o downloadOptions) source(cmd *cobra.Command, args []string) (contentid.Source, error) {
	mode, err := contentid.ParseMode(o.input)
	if err != nil {
		return contentid.Source{}, err
	}
	idFile := strings.TrimSpace(o.idFile)
	switch mode {
	case contentid.ModeArgs:
		if idFile != "" {
			return contentid.Source{}, fmt.Errorf("%w: --id-file requires --input file", contentid.ErrInvalidSource)
		}
		if len(args) == 0 {
			return contentid.Source{}, fmt.Errorf("%w: no ids given", contentid.ErrInvalidSource)
		}
	case contentid.ModeFile:
		if len(args) > 0 {
			return contentid.Source{}, fmt.Errorf("%w: positional ids are not allowed with --input file", contentid.ErrInvalidSource)
		}
		if idFile == "" {
			return contentid.Source{}, fmt.Errorf("%w: --input file requires --id-file", contentid.ErrInvalidSource)
		}
		expanded, err := config.ExpandPath(idFile)
		if err != nil {
			return contentid.Source{}, fmt.Errorf("resolve id file: %w", err)
		}
		idFile = expanded
	case contentid.ModeStdin:
		if len(args) > 0 || idFile != "" {
			return contentid.Source{}, fmt.Errorf("%w: --input stdin takes no ids or --id-file", contentid.ErrInvalidSource)
		}
	}
	return contentid.Source{
		Mode:  mode,
		Args:  args,
		Path:  idFile,
		Stdin: cmd.InOrStdin(),
	}, nil
}

func runDownload(cmd *cobra.Command, cc *commandContext, cfg *config.Config, opts downloadOptions, args []string) error {
	src, err := opts.source(cmd, args)
	if err != nil {
		return services.Wrap(services.ErrValidation, "download", "arguments", "", err)
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
	if missing := deps.Missing(statuses); len(missing) > 0 {
		renderDependencyLines(out, missing, colorize)
		names := make([]string, 0, len(missing))
		for _, status := range missing {
			names = append(names, status.Name)
		}
		return fmt.Errorf("missing required dependencies: %s", strings.Join(names, ", "))
	}
	if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, "")); len(failed) > 0 {
		for _, result := range failed {
			fmt.Fprintln(out, renderStatusLine(result.Name, statusError, result.Detail, colorize))
		}
		return fmt.Errorf("preflight failed: %s", failed[0].Detail)
	}

	logger, err := cc.logger(opts.verbose)
	if err != nil {
		return err
	}

	ids, err := contentid.Resolve(cmd.Context(), src)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Paths.OutputDir)
	if err != nil {
		return err
	}
	failures, err := ledger.Open(cfg.Paths.FailedFile, logger)
	if err != nil {
		return err
	}

	fetcher, err := ytdlp.New(cfg.Fetch.YtdlpBinary, cfg.Fetch.TimeoutSeconds,
		ytdlp.WithNetrc(cfg.Fetch.UseNetrc),
		ytdlp.WithFFmpegLocation(cfg.Fetch.FFmpegBinary),
		ytdlp.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ingestOpts := ingest.Options{
		Store:         st,
		Ledger:        failures,
		Fetcher:       fetcher,
		Target:        cfg.TargetType(),
		SkipKinds:     cfg.SkipKinds(),
		CookiesFile:   cfg.Fetch.CookiesFile,
		SleepRequests: cfg.Fetch.SleepRequests,
		SleepInterval: cfg.Fetch.SleepInterval,
		Logger:        logger,
	}
	if cfg.Journal.Enabled {
		if js := openJournal(cfg, logger); js != nil {
			defer js.Close()
			ingestOpts.Recorder = js
		}
	}

	orchestrator, err := ingest.New(ingestOpts)
	if err != nil {
		return err
	}
	summary, runErr := orchestrator.Run(cmd.Context(), ids)
	renderSummary(out, summary, failures.Path())
	return runErr
}

func openJournal(cfg *config.Config, logger *slog.Logger) *journal.Store {
	js, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		logger.Warn("journal unavailable; attempts will not be recorded",
			slog.String("path", cfg.Paths.JournalPath),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return js
}

func renderSummary(out io.Writer, summary ingest.Summary, ledgerPath string) {
	counts := []columnAlignment{alignLeft, alignRight}

	rows := make([][]string, 0, len(ingest.Outcomes()))
	for _, outcome := range ingest.Outcomes() {
		rows = append(rows, []string{humanLabel(string(outcome)), strconv.Itoa(summary.Count(outcome))})
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		title:   "Run " + summary.RunID,
		headers: []string{"Outcome", "Count"},
		aligns:  counts,
		rows:    rows,
		footer:  []string{"Processed", fmt.Sprintf("%d/%d", summary.Processed(), summary.Total)},
	}))

	if len(summary.Kinds) > 0 {
		kindRows := make([][]string, 0, len(summary.Kinds))
		for _, kind := range failure.Kinds() {
			if count := summary.Kinds[kind]; count > 0 {
				kindRows = append(kindRows, []string{humanLabel(string(kind)), strconv.Itoa(count)})
			}
		}
		fmt.Fprintln(out, renderTable(tableSpec{
			headers: []string{"Failure Kind", "Count"},
			aligns:  counts,
			rows:    kindRows,
		}))
	}

	for _, itemErr := range summary.Errors {
		fmt.Fprintf(out, "%s: %v\n", itemErr.ID, itemErr.Err)
	}
	if summary.Count(ingest.OutcomeFailed) > 0 {
		fmt.Fprintf(out, "Failures recorded in %s\n", ledgerPath)
	}
}
