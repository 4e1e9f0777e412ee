// Package cli holds the courtagectl command tree: schema migrations and the
// batch operations an operator runs outside the HTTP API.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	bordereauapp "github.com/courtage/backend/internal/application/bordereau"
	contractapp "github.com/courtage/backend/internal/application/contract"
	rategridapp "github.com/courtage/backend/internal/application/rategrid"
	"github.com/courtage/backend/internal/infrastructure/config"
	"github.com/courtage/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is injected at build time
var Version = "dev"

// GridImporter loads a rate grid CSV for one tenant
type GridImporter interface {
	ImportCSV(ctx context.Context, tenantID uuid.UUID, r io.Reader) (*rategridapp.ImportResult, error)
}

// LifecycleRunner activates and expires due contracts
type LifecycleRunner interface {
	RunLifecycle(ctx context.Context, day time.Time) (*contractapp.LifecycleResult, error)
}

// BordereauGenerator builds and exports company statements
type BordereauGenerator interface {
	Generate(ctx context.Context, tenantID uuid.UUID, req bordereauapp.GenerateBordereauRequest) (*bordereauapp.BordereauResponse, error)
	Export(ctx context.Context, tenantID, id uuid.UUID, formats ...bordereauapp.Format) ([]bordereauapp.ExportResponse, error)
}

// Migrator applies schema migrations
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Close() error
}

// Services are opened on first use so that help and flag errors never touch
// the database.
type Services struct {
	Grids      GridImporter
	Lifecycle  LifecycleRunner
	Bordereaux BordereauGenerator
}

// Dependencies builds what the commands run against
type Dependencies struct {
	LoadConfig   func(path string) (*config.Config, error)
	OpenServices func(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Services, func(), error)
	OpenMigrator func(ctx context.Context, cfg *config.Config, log *zap.Logger) (Migrator, error)
}

type rootOptions struct {
	configPath string
	logLevel   string
	tenant     string
	output     string
	timeout    time.Duration
}

type cliContextKey struct{}

// cliContext carries the loaded configuration through the command tree
type cliContext struct {
	deps     Dependencies
	cfg      *config.Config
	log      *zap.Logger
	tenantID uuid.UUID
	output   string
	timeout  time.Duration
}

// NewRootCommand assembles the command tree
func NewRootCommand(deps Dependencies) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "courtagectl",
		Short:   "Operator commands for the courtage backend",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, deps, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (default: ./config.toml)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.tenant, "tenant", "t", "", "tenant id (default: app.default_tenant_id)")
	pf.StringVarP(&opts.output, "output", "o", "text", "output format (text, json)")
	pf.DurationVar(&opts.timeout, "timeout", 10*time.Minute, "overall command timeout")

	cmd.AddCommand(
		newMigrateCmd(),
		newGridCmd(),
		newLifecycleCmd(),
		newBordereauCmd(),
	)
	return cmd
}

// Execute runs the command tree with the given dependencies
func Execute(ctx context.Context, deps Dependencies) error {
	return NewRootCommand(deps).ExecuteContext(ctx)
}

func persistentPreRun(cmd *cobra.Command, deps Dependencies, opts *rootOptions) error {
	if opts.output != "text" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	cfg, err := deps.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	log, err := logger.New(logger.Config{Level: opts.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	tenant := opts.tenant
	if tenant == "" {
		tenant = cfg.App.DefaultTenantID
	}
	tenantID, err := uuid.Parse(tenant)
	if err != nil {
		return fmt.Errorf("invalid tenant id %q: %w", tenant, err)
	}

	cliCtx := &cliContext{
		deps:     deps,
		cfg:      cfg,
		log:      log,
		tenantID: tenantID,
		output:   opts.output,
		timeout:  opts.timeout,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

func contextOf(cmd *cobra.Command) (*cliContext, error) {
	c, ok := cmd.Context().Value(cliContextKey{}).(*cliContext)
	if !ok {
		return nil, fmt.Errorf("command context not initialized")
	}
	return c, nil
}

// withServices opens the services, runs fn under the command timeout and
// releases them
func withServices(cmd *cobra.Command, fn func(ctx context.Context, c *cliContext, s *Services) error) error {
	c, err := contextOf(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	services, release, err := c.deps.OpenServices(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("failed to open services: %w", err)
	}
	defer release()
	return fn(ctx, c, services)
}

func (c *cliContext) print(w io.Writer, v any, text func(io.Writer)) error {
	if c.output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
