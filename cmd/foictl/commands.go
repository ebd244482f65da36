package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/noah-isme/foi-request-api/internal/dto"
	"github.com/noah-isme/foi-request-api/internal/models"
	"github.com/noah-isme/foi-request-api/internal/repository"
	"github.com/noah-isme/foi-request-api/internal/service"
	"github.com/noah-isme/foi-request-api/pkg/config"
	"github.com/noah-isme/foi-request-api/pkg/database"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending PostgreSQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Store.Driver != config.StoreDriverPostgres {
				return errors.New("migrate requires STORE_DRIVER=postgres")
			}
			db, err := database.NewPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := repository.Migrate(cmd.Context(), db)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}

func newSeedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample requests into an empty store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			seeded, err := a.SeedSample(cmd.Context())
			if err != nil {
				return err
			}
			if seeded == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "store already populated, nothing seeded")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d requests\n", seeded)
			return nil
		},
	}
}

func newListCmd(c *cli) *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.Requests.List(cmd.Context(), dto.FOIRequestQuery{
				Statuses:     filter.Statuses,
				Legislations: filter.Legislations,
				Search:       filter.Search,
			})
			if err != nil {
				return err
			}

			t := newTable("ID", "REQUESTER", "TYPE", "LEGISLATION", "RECEIVED", "DUE", "STATUS", "ASSIGNED", "FEE")
			for _, r := range list.Items {
				t.Row(r.ID, r.RequesterName, string(r.RequestType), string(r.LegislationType),
					r.DateReceived.String(), r.DueDate.String(), string(r.Status), r.AssignedTo,
					fmt.Sprintf("$%d", r.FeeEstimate))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d requests\n", len(list.Items), list.Total)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newReportCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print request counts, deadline buckets and urgent requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			summary, _, err := a.Reports.Summary(cmd.Context())
			if err != nil {
				return err
			}
			urgent, _, err := a.Reports.Urgent(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Summary *dto.ReportSummary  `json:"summary"`
					Urgent  []dto.UrgentRequest `json:"urgent"`
				}{summary, urgent})
			}

			t := newTable("GROUP", "CATEGORY", "COUNT")
			t.Row("Total requests", "", strconv.Itoa(summary.Total))
			countRows(t, "Status", summary.ByStatus)
			countRows(t, "Type", summary.ByType)
			countRows(t, "Legislation", summary.ByLegislation)
			t.Row("Timeline", "On time", strconv.Itoa(summary.Timeline.OnTime))
			t.Row("Timeline", "At risk", strconv.Itoa(summary.Timeline.AtRisk))
			t.Row("Timeline", "Overdue", strconv.Itoa(summary.Timeline.Overdue))
			fmt.Fprintln(out, t.Render())

			if len(urgent) == 0 {
				fmt.Fprintln(out, "No urgent requests")
				return nil
			}
			fmt.Fprintln(out, "Urgent requests:")
			for _, u := range urgent {
				fmt.Fprintf(out, "  %s  %s  %s\n", u.Request.ID, u.Request.RequesterName, describeDays(u.DaysRemaining))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newExportCmd(c *cli) *cobra.Command {
	var (
		flags  filterFlags
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write requests to a CSV or PDF file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			exportFormat := models.ExportFormat(format)
			if !exportFormat.Valid() {
				return fmt.Errorf("unsupported format %q", format)
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			content, err := a.Exporter.Render(cmd.Context(), exportFormat, filter)
			if err != nil {
				return err
			}
			if output == "" {
				output = service.ExportFilename(time.Now().UTC(), exportFormat)
			}
			if err := os.WriteFile(output, content, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&format, "format", string(models.ExportFormatCSV), "Export format: csv or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default foi_requests_YYYYMMDD.<format>)")
	return cmd
}

func countRows[K ~string](t *table.Table, group string, counts map[K]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.Row(group, k, strconv.Itoa(counts[K(k)]))
	}
}

func describeDays(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	case days == 0:
		return "due today"
	default:
		return fmt.Sprintf("%d days remaining", days)
	}
}
