package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
	"github.com/aryan0dhankhar/staffdir/internal/infrastructure/sheet"
	"github.com/aryan0dhankhar/staffdir/internal/repository"
	"github.com/aryan0dhankhar/staffdir/internal/service"
	"github.com/aryan0dhankhar/staffdir/internal/view"
	"github.com/aryan0dhankhar/staffdir/internal/worker"
	"github.com/aryan0dhankhar/staffdir/pkg/config"
)

// rootOptions are the flags shared by every command
type rootOptions struct {
	logger   *slog.Logger
	server   string
	file     string
	sheetURL string
	timeout  time.Duration
	timeZone string
}

// queryFlags are the filter flags of list and watch
type queryFlags struct {
	text        string
	birthMonth  string
	hireMonth   string
	tenureYears string
	sector      string
	unit        string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.text, "query", "q", "", "Text matched against name, sector and unit")
	cmd.Flags().StringVar(&f.birthMonth, "birth-month", "", "Birth month (1-12)")
	cmd.Flags().StringVar(&f.hireMonth, "hire-month", "", "Hire month (1-12)")
	cmd.Flags().StringVar(&f.tenureYears, "tenure", "", "Completed years of service")
	cmd.Flags().StringVar(&f.sector, "sector", "", "Exact sector")
	cmd.Flags().StringVar(&f.unit, "unit", "", "Exact unit")
}

func (f *queryFlags) query() (domain.Query, error) {
	v := url.Values{}
	v.Set("q", f.text)
	v.Set("birthMonth", f.birthMonth)
	v.Set("hireMonth", f.hireMonth)
	v.Set("tenureYears", f.tenureYears)
	v.Set("sector", f.sector)
	v.Set("unit", f.unit)
	return domain.ParseQuery(v)
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "staffdir",
		Short: "Browse and extend the employee directory",
		Long: `staffdir reads the employee directory from a server, a data file or a
published spreadsheet, filters it and prints it as a table.

Without --file or --sheet the directory server at --server is used.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", "", "Directory server base URL (default: REMOTE_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.file, "file", "", "Read and write a JSON data document directly")
	rootCmd.PersistentFlags().StringVar(&opts.sheetURL, "sheet", "", "Read a published spreadsheet CSV export")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "HTTP timeout")
	rootCmd.PersistentFlags().StringVar(&opts.timeZone, "tz", "", "Time zone for ages and tenure (default: TIME_ZONE)")

	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newAddCmd(opts))
	rootCmd.AddCommand(newFiltersCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	return rootCmd
}

// openDirectory builds a directory over the source selected by the flags
func openDirectory(opts *rootOptions) (*service.Directory, error) {
	sources := 0
	for _, s := range []string{opts.server, opts.file, opts.sheetURL} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return nil, errors.New("use only one of --server, --file and --sheet")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.timeZone != "" {
		loc, err := time.LoadLocation(opts.timeZone)
		if err != nil {
			return nil, fmt.Errorf("invalid --tz: %w", err)
		}
		cfg.Location = loc
	}

	var store domain.Store
	switch {
	case opts.file != "":
		store = repository.NewFileStore(opts.file, opts.logger)
	case opts.sheetURL != "":
		store = repository.NewSheetStore(sheet.NewClient(opts.sheetURL, opts.timeout, opts.logger), opts.logger)
	default:
		server := opts.server
		if server == "" {
			server = cfg.RemoteURL
		}
		store = repository.NewRemoteStore(server, opts.timeout, opts.logger)
	}
	return service.NewDirectory(store, opts.logger, cfg), nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "Print the employees matching the filters",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}
			directory, err := openDirectory(opts)
			if err != nil {
				return err
			}
			if _, err := directory.Dispatch(cmd.Context(), service.UpdateQuery{Query: q}); err != nil {
				return err
			}

			loadErr := directory.Load(cmd.Context(), "cli")
			v := directory.CurrentView()
			view.RenderTable(cmd.OutOrStdout(), v.Records, v.Total, v.Err)
			return loadErr
		},
	}
	qf.register(cmd)
	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		name      string
		sector    string
		unit      string
		birthDate string
		hireDate  string
		extra     map[string]string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an employee",
		Long: `Add an employee to the directory. Dates are YYYY-MM-DD or DD/MM/YYYY;
age, tenure and months are computed from them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := domain.RawRecord{
				domain.KeyName:      name,
				domain.KeySector:    sector,
				domain.KeyUnit:      unit,
				domain.KeyBirthDate: birthDate,
				domain.KeyHireDate:  hireDate,
			}
			for k, v := range extra {
				raw[k] = v
			}

			directory, err := openDirectory(opts)
			if err != nil {
				return err
			}
			added, err := directory.Add(cmd.Context(), raw)
			if err != nil {
				return fmt.Errorf("record was not saved: %w", err)
			}
			view.RenderTable(cmd.OutOrStdout(), []domain.Employee{added}, 1, nil)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name (required)")
	cmd.Flags().StringVar(&sector, "sector", "", "Sector")
	cmd.Flags().StringVar(&unit, "unit", "", "Unit")
	cmd.Flags().StringVar(&birthDate, "birth-date", "", "Birth date")
	cmd.Flags().StringVar(&hireDate, "hire-date", "", "Hire date")
	cmd.Flags().StringToStringVar(&extra, "field", nil, "Extra column as KEY=VALUE (repeatable)")
	return cmd
}

func newFiltersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "Print the values offered by each filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			directory, err := openDirectory(opts)
			if err != nil {
				return err
			}
			if err := directory.Load(cmd.Context(), "cli"); err != nil {
				return err
			}
			printOptions(cmd.OutOrStdout(), directory.Options())
			return nil
		},
	}
}

func printOptions(w io.Writer, o domain.Options) {
	fmt.Fprintf(w, "sectors: %s\n", strings.Join(o.Sectors, ", "))
	fmt.Fprintf(w, "units:   %s\n", strings.Join(o.Units, ", "))
	fmt.Fprintf(w, "months:  %s\n", joinInts(o.Months))
	if n := len(o.Tenures); n > 0 {
		fmt.Fprintf(w, "tenure:  %d-%d\n", o.Tenures[0], o.Tenures[n-1])
	}
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ", ")
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var (
		qf       queryFlags
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reprint the filtered table whenever the directory is reloaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}
			directory, err := openDirectory(opts)
			if err != nil {
				return err
			}
			if _, err := directory.Dispatch(cmd.Context(), service.UpdateQuery{Query: q}); err != nil {
				return err
			}
			return watch(cmd.Context(), cmd.OutOrStdout(), directory, worker.NewRefresher(directory, opts.logger, interval))
		},
	}
	qf.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", config.DefaultSheetRefresh, "Reload interval")
	return cmd
}

// watch renders the current view after every state change until ctx ends
func watch(ctx context.Context, out io.Writer, directory *service.Directory, refresher *worker.Refresher) error {
	updates, unsubscribe := directory.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		refresher.Start(ctx)
	}()
	defer func() { <-done }()

	_ = directory.Load(ctx, "cli")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-updates:
			v := directory.CurrentView()
			fmt.Fprintf(out, "\n%s\n", time.Now().Format(time.DateTime))
			view.RenderTable(out, v.Records, v.Total, v.Err)
		}
	}
}
