package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpattn/trackgrid/internal/domain"
	"github.com/rpattn/trackgrid/internal/export"
	"github.com/rpattn/trackgrid/internal/grid"
	"github.com/rpattn/trackgrid/internal/screen"
)

func newColumnsCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Fetch a screen and print its columns with their filter options",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := a.submit(cmd, name)
			if err != nil {
				return err
			}
			snapshot, err := controller.Snapshot()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %s (%d rows)\n", snapshot.Name, snapshot.State.Status, snapshot.State.Collection.Len())
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tLABEL\tFILTER\tOPTIONS")
			for _, column := range snapshot.Columns.Visible() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", column.Key, column.Label, column.Variant, strings.Join(column.Options, " | "))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&name, "screen", "", "screen name")
	_ = cmd.MarkFlagRequired("screen")
	return cmd
}

func newRowsCmd(a *app) *cobra.Command {
	var (
		name    string
		filters []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Fetch a screen and print the rows passing the filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, columns, err := a.filteredRows(cmd, name, filters)
			if err != nil {
				return err
			}
			visible := columns.Visible()
			if asJSON {
				enc := json.NewEncoder(a.out)
				for _, row := range rows {
					line := make(map[string]domain.Value, len(visible))
					for _, column := range visible {
						line[column.Key] = column.Value(row)
					}
					if err := enc.Encode(line); err != nil {
						return err
					}
				}
				return nil
			}
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			labels := make([]string, len(visible))
			for i, column := range visible {
				labels[i] = column.Label
			}
			fmt.Fprintln(w, strings.Join(labels, "\t"))
			for _, row := range rows {
				cells := make([]string, len(visible))
				for i, column := range visible {
					cells[i] = column.Value(row).TextOrEmpty()
				}
				fmt.Fprintln(w, strings.Join(cells, "\t"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&name, "screen", "", "screen name")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "column filter, key=a,b or key~text (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per row")
	_ = cmd.MarkFlagRequired("screen")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		name    string
		filters []string
		format  string
		outDir  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered rows of a screen to CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			exportFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			rows, columns, err := a.filteredRows(cmd, name, filters)
			if err != nil {
				return err
			}
			if outDir == "-" {
				return export.Write(a.out, exportFormat, columns, rows)
			}
			dir := outDir
			if dir == "" {
				dir = a.cfg.Export.Dir
			}
			controller, err := a.controller(name)
			if err != nil {
				return err
			}
			def := controller.Definition()
			prefix := def.ExportPrefix
			if prefix == "" {
				prefix = def.Name
			}
			path, err := export.Save(dir, prefix, exportFormat, columns, rows, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "wrote %d rows to %s\n", len(rows), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "screen", "", "screen name")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "column filter, key=a,b or key~text (repeatable)")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory, or - for stdout (defaults to export.dir)")
	_ = cmd.MarkFlagRequired("screen")
	return cmd
}

func newRefreshCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch every screen concurrently and print the result states",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			snapshots, err := registry.RefreshAll(cmd.Context(), a.params(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCREEN\tSTATUS\tROWS\tMESSAGE")
			for _, snapshot := range snapshots {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", snapshot.Name, snapshot.State.Status, snapshot.State.Collection.Len(), snapshot.State.Message)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "concurrency", 4, "maximum screens fetched at once")
	return cmd
}

// controller returns the named screen from a cached registry.
func (a *app) controller(name string) (*screen.Controller, error) {
	if a.screens == nil {
		registry, err := a.registry()
		if err != nil {
			return nil, err
		}
		a.screens = registry
	}
	return a.screens.Get(name)
}

func (a *app) submit(cmd *cobra.Command, name string) (*screen.Controller, error) {
	controller, err := a.controller(name)
	if err != nil {
		return nil, err
	}
	snapshot, err := controller.Submit(cmd.Context(), a.params())
	if err != nil {
		return nil, err
	}
	if snapshot.State.Status == domain.ResultError {
		return nil, fmt.Errorf("screen %s: %s", name, snapshot.State.Message)
	}
	return controller, nil
}

func (a *app) filteredRows(cmd *cobra.Command, name string, rawFilters []string) ([]domain.Record, grid.Columns, error) {
	filters, err := parseFilters(rawFilters)
	if err != nil {
		return nil, nil, err
	}
	controller, err := a.submit(cmd, name)
	if err != nil {
		return nil, nil, err
	}
	set, err := controller.Rows(filters)
	if err != nil {
		return nil, nil, err
	}
	return set.Rows, set.Columns, nil
}
