package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rpattn/trackgrid/internal/client"
	"github.com/rpattn/trackgrid/internal/config"
	"github.com/rpattn/trackgrid/internal/domain"
	"github.com/rpattn/trackgrid/internal/screen"
	"github.com/rpattn/trackgrid/internal/source"
)

// app carries the state shared by every command.
type app struct {
	out io.Writer

	configDir   string
	apiURL      string
	file        string
	screensFile string
	reportDate  string
	verbose     bool

	cfg     config.Config
	logger  *zap.Logger
	screens *screen.Registry
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:           "trackgrid",
		Short:         "Inspect and export filterable tracking screens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configDir)
			if err != nil {
				return err
			}
			if a.verbose {
				cfg.Log.Level = "debug"
			}
			logger, err := config.BuildLogger(cfg.Log)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configDir, "config", ".", "directory containing config.yaml")
	flags.StringVar(&a.apiURL, "api-url", "", "tracking API base url (overrides api.base_url)")
	flags.StringVar(&a.file, "file", "", "read records from a CSV, XLSX or JSON file instead of the API")
	flags.StringVar(&a.screensFile, "screens", "", "screen definitions YAML (defaults to the built-in screens)")
	flags.StringVar(&a.reportDate, "report-date", "", "report date sent to report endpoints")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newColumnsCmd(a),
		newRowsCmd(a),
		newExportCmd(a),
		newRefreshCmd(a),
	)
	return rootCmd
}

// registry builds controllers for every screen. With --file every screen
// reads from that file.
func (a *app) registry() (*screen.Registry, error) {
	path := a.screensFile
	if path == "" {
		path = a.cfg.Screens.File
	}
	defs, err := config.LoadScreens(path)
	if err != nil {
		return nil, err
	}

	router := source.Router{Local: source.NewFiles(a.file)}
	if a.file != "" {
		for i := range defs {
			defs[i].Source = domain.SourceSpec{Kind: domain.SourceFile, Path: a.file}
		}
	} else {
		baseURL := a.cfg.API.BaseURL
		if a.apiURL != "" {
			baseURL = a.apiURL
		}
		api, err := client.New(baseURL, client.WithTimeout(a.cfg.API.Timeout))
		if err != nil {
			return nil, err
		}
		router.Remote = api
	}
	return screen.NewRegistry(defs, router, screen.WithLogger(a.logger))
}

func (a *app) params() domain.FetchParams {
	return domain.FetchParams{ReportDate: a.reportDate}
}

// parseFilters reads --filter values: "key=a,b" selects values and
// "key~text" searches.
func parseFilters(raw []string) (map[string]domain.ColumnFilter, error) {
	filters := make(map[string]domain.ColumnFilter, len(raw))
	for _, entry := range raw {
		if key, text, ok := strings.Cut(entry, "~"); ok && !strings.Contains(key, "=") {
			key = strings.TrimSpace(key)
			if key == "" {
				return nil, fmt.Errorf("invalid filter %q", entry)
			}
			filter := filters[key]
			filter.Text = text
			filters[key] = filter
			continue
		}
		key, values, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=value[,value] or key~text", entry)
		}
		filter := filters[key]
		for _, value := range strings.Split(values, ",") {
			filter.Values = append(filter.Values, strings.TrimSpace(value))
		}
		filters[key] = filter
	}
	return filters, nil
}
