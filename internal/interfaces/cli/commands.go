package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	bordereauapp "github.com/courtage/backend/internal/application/bordereau"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}

	run := func(fn func(cmd *cobra.Command, m Migrator, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			c, err := contextOf(cmd)
			if err != nil {
				return err
			}
			m, err := c.deps.OpenMigrator(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return fmt.Errorf("failed to create migrator: %w", err)
			}
			defer func() {
				if err := m.Close(); err != nil {
					c.log.Warn("failed to close migrator", zap.Error(err))
				}
			}()
			return fn(cmd, m, args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(_ *cobra.Command, m Migrator, _ []string) error {
				return m.Up()
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: run(func(_ *cobra.Command, m Migrator, _ []string) error {
				return m.Down()
			}),
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Apply n migrations, or roll back when n is negative",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(_ *cobra.Command, m Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the recorded version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(_ *cobra.Command, m Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, m Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				c, _ := contextOf(cmd)
				out := struct {
					Version uint `json:"version"`
					Dirty   bool `json:"dirty"`
				}{v, dirty}
				return c.print(cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintf(w, "version %d (dirty: %t)\n", v, dirty)
				})
			}),
		},
	)
	return cmd
}

func newGridCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Manage rate grids",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a rate grid CSV, all rows or none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, c *cliContext, s *Services) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				result, err := s.Grids.ImportCSV(ctx, c.tenantID, f)
				if err != nil {
					return err
				}
				if err := c.print(cmd.OutOrStdout(), result, func(w io.Writer) {
					fmt.Fprintf(w, "rows: %d, created: %d, updated: %d, unchanged: %d (encoding %s)\n",
						result.TotalRows, result.Created, result.Updated, result.Unchanged, result.Encoding)
					for _, e := range result.Errors {
						fmt.Fprintf(w, "  row %d: %s\n", e.Row, e.Message)
					}
				}); err != nil {
					return err
				}
				if !result.Applied() {
					return fmt.Errorf("import rejected: %d row errors", result.TotalErrors)
				}
				return nil
			})
		},
	})
	return cmd
}

func newLifecycleCmd() *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "lifecycle",
		Short: "Contract lifecycle operations",
	}
	run := &cobra.Command{
		Use:   "run",
		Short: "Activate contracts starting today and expire those past their end date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			at := time.Now().UTC().Truncate(24 * time.Hour)
			if day != "" {
				parsed, err := time.Parse(dateLayout, day)
				if err != nil {
					return fmt.Errorf("invalid --day %q, want YYYY-MM-DD", day)
				}
				at = parsed
			}
			return withServices(cmd, func(ctx context.Context, c *cliContext, s *Services) error {
				result, err := s.Lifecycle.RunLifecycle(ctx, at)
				if err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), result, func(w io.Writer) {
					fmt.Fprintf(w, "%s: activated %d, expired %d, failed %d\n",
						at.Format(dateLayout), result.Activated, result.Expired, result.Failed)
				})
			})
		},
	}
	run.Flags().StringVar(&day, "day", "", "sweep day as YYYY-MM-DD (default: today)")
	cmd.AddCommand(run)
	return cmd
}

func newBordereauCmd() *cobra.Command {
	var (
		companyID string
		from      string
		to        string
		notes     string
		export    []string
	)

	cmd := &cobra.Command{
		Use:   "bordereau",
		Short: "Company statements",
	}
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a bordereau for a company and period, optionally exporting it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := generateRequest(companyID, from, to, notes)
			if err != nil {
				return err
			}
			formats := make([]bordereauapp.Format, 0, len(export))
			for _, f := range export {
				formats = append(formats, bordereauapp.Format(strings.ToLower(strings.TrimSpace(f))))
			}

			return withServices(cmd, func(ctx context.Context, c *cliContext, s *Services) error {
				b, err := s.Bordereaux.Generate(ctx, c.tenantID, req)
				if err != nil {
					return err
				}
				var exports []bordereauapp.ExportResponse
				if len(formats) > 0 {
					if exports, err = s.Bordereaux.Export(ctx, c.tenantID, b.ID, formats...); err != nil {
						return err
					}
				}
				out := struct {
					Bordereau *bordereauapp.BordereauResponse `json:"bordereau"`
					Exports   []bordereauapp.ExportResponse  `json:"exports,omitempty"`
				}{b, exports}
				return c.print(cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintf(w, "%s %s..%s: %d lines, total %s, commission %s\n",
						b.Reference, b.PeriodStart.Format(dateLayout), b.PeriodEnd.Format(dateLayout),
						b.Totals.Count, b.Totals.TotalAmount, b.Totals.Commission)
					for _, e := range exports {
						fmt.Fprintf(w, "  %s: %s\n", e.Format, e.DownloadURL)
					}
				})
			})
		},
	}
	f := generate.Flags()
	f.StringVar(&companyID, "company", "", "company id")
	f.StringVar(&from, "from", "", "period start, YYYY-MM-DD")
	f.StringVar(&to, "to", "", "period end, YYYY-MM-DD")
	f.StringVar(&notes, "notes", "", "free text printed on the statement")
	f.StringSliceVar(&export, "export", nil, "export formats (pdf, xlsx)")
	_ = generate.MarkFlagRequired("company")
	_ = generate.MarkFlagRequired("from")
	_ = generate.MarkFlagRequired("to")

	cmd.AddCommand(generate)
	return cmd
}

func generateRequest(companyID, from, to, notes string) (bordereauapp.GenerateBordereauRequest, error) {
	var req bordereauapp.GenerateBordereauRequest
	id, err := uuid.Parse(companyID)
	if err != nil {
		return req, fmt.Errorf("invalid --company %q", companyID)
	}
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return req, fmt.Errorf("invalid --from %q, want YYYY-MM-DD", from)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return req, fmt.Errorf("invalid --to %q, want YYYY-MM-DD", to)
	}
	if end.Before(start) {
		return req, errors.New("--to is before --from")
	}
	return bordereauapp.GenerateBordereauRequest{CompanyID: id, StartDate: start, EndDate: end, Notes: notes}, nil
}
