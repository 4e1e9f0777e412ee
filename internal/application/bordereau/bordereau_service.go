package bordereau

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/courtage/backend/internal/domain/bordereau"
	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/company"
	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/document"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Format is an export file format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

var formatContentTypes = map[Format]string{
	FormatPDF:  "application/pdf",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	return formatContentTypes[f]
}

// IsValid reports whether f is a known format
func (f Format) IsValid() bool {
	_, ok := formatContentTypes[f]
	return ok
}

const defaultDownloadExpiry = 15 * time.Minute

// Renderer turns a statement into a file of one format
type Renderer interface {
	Render(ctx context.Context, s *Statement) ([]byte, error)
}

// BordereauServiceDeps groups the repositories the service reads from
type BordereauServiceDeps struct {
	Bordereaux bordereau.BordereauRepository
	Contracts  contract.ContractRepository
	Clients    client.ClientRepository
	Vehicles   vehicle.VehicleRepository
	Companies  company.CompanyRepository
	Storage    document.ObjectStorage
}

// BordereauService builds settlement statements and their exports
type BordereauService struct {
	bordereauRepo  bordereau.BordereauRepository
	contractRepo   contract.ContractRepository
	clientRepo     client.ClientRepository
	vehicleRepo    vehicle.VehicleRepository
	companyRepo    company.CompanyRepository
	storage        document.ObjectStorage
	renderers      map[Format]Renderer
	downloadExpiry time.Duration
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewBordereauService creates a new BordereauService
func NewBordereauService(deps BordereauServiceDeps, logger *zap.Logger) *BordereauService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BordereauService{
		bordereauRepo:  deps.Bordereaux,
		contractRepo:   deps.Contracts,
		clientRepo:     deps.Clients,
		vehicleRepo:    deps.Vehicles,
		companyRepo:    deps.Companies,
		storage:        deps.Storage,
		renderers:      make(map[Format]Renderer),
		downloadExpiry: defaultDownloadExpiry,
		logger:         logger,
		now:            time.Now,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *BordereauService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRenderer registers the renderer used for format
func (s *BordereauService) SetRenderer(format Format, r Renderer) {
	s.renderers[format] = r
}

// SetDownloadExpiry sets how long export download URLs stay valid
func (s *BordereauService) SetDownloadExpiry(d time.Duration) {
	if d > 0 {
		s.downloadExpiry = d
	}
}

// Generate creates a draft bordereau listing the company's settled contracts
// created during the period. An empty period yields an empty bordereau.
func (s *BordereauService) Generate(ctx context.Context, tenantID uuid.UUID, req GenerateBordereauRequest) (*BordereauResponse, error) {
	period, err := bordereau.NewPeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	comp, err := s.loadCompany(ctx, tenantID, req.CompanyID)
	if err != nil {
		return nil, err
	}
	lines, err := s.collectLines(ctx, tenantID, comp.ID, period)
	if err != nil {
		return nil, err
	}

	var b *bordereau.Bordereau
	err = shared.RetryOnDuplicate(shared.MaxSaveAttempts, func() error {
		var err error
		b, err = bordereau.NewBordereau(tenantID, comp.ID, period)
		if err != nil {
			return err
		}
		if err := b.Fill(lines, s.now()); err != nil {
			return err
		}
		if req.Notes != "" {
			if err := b.SetNotes(req.Notes); err != nil {
				return err
			}
		}
		ref, err := s.bordereauRepo.GenerateReference(ctx)
		if err != nil {
			return err
		}
		if err := b.AssignReference(ref); err != nil {
			return err
		}
		return s.bordereauRepo.Save(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	if err := shared.PublishAndClear(ctx, s.eventPublisher, b); err != nil {
		return nil, err
	}

	s.logger.Info("bordereau generated",
		zap.String("reference", b.Reference),
		zap.String("company", comp.Code),
		zap.Int("lines", b.Totals.Count),
		zap.String("total_amount", b.Totals.TotalAmount.String()))

	response := ToBordereauResponse(b)
	return &response, nil
}

// Regenerate recomputes the lines of a draft over its own period
func (s *BordereauService) Regenerate(ctx context.Context, tenantID, id uuid.UUID) (*BordereauResponse, error) {
	b, err := s.bordereauRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if b.Status != bordereau.StatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Only draft bordereaux can be regenerated")
	}
	lines, err := s.collectLines(ctx, tenantID, b.CompanyID, b.Period)
	if err != nil {
		return nil, err
	}
	if err := b.Fill(lines, s.now()); err != nil {
		return nil, err
	}
	if err := s.bordereauRepo.Save(ctx, b); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.eventPublisher, b); err != nil {
		return nil, err
	}

	response := ToBordereauResponse(b)
	return &response, nil
}

// UpdateNotes replaces the free text printed under the totals
func (s *BordereauService) UpdateNotes(ctx context.Context, tenantID, id uuid.UUID, req UpdateNotesRequest) (*BordereauResponse, error) {
	b, err := s.bordereauRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := b.SetNotes(req.Notes); err != nil {
		return nil, err
	}
	if err := s.bordereauRepo.Save(ctx, b); err != nil {
		return nil, err
	}
	response := ToBordereauResponse(b)
	return &response, nil
}

// Close freezes a draft
func (s *BordereauService) Close(ctx context.Context, tenantID, id uuid.UUID) (*BordereauResponse, error) {
	b, err := s.bordereauRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := b.Close(s.now()); err != nil {
		return nil, err
	}
	if err := s.bordereauRepo.Save(ctx, b); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.eventPublisher, b); err != nil {
		return nil, err
	}

	response := ToBordereauResponse(b)
	return &response, nil
}

// Delete removes a draft
func (s *BordereauService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	b, err := s.bordereauRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := b.CanDelete(); err != nil {
		return err
	}
	return s.bordereauRepo.DeleteForTenant(ctx, tenantID, id)
}

// GetByID returns a bordereau with its lines
func (s *BordereauService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*BordereauResponse, error) {
	b, err := s.bordereauRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToBordereauResponse(b)
	return &response, nil
}

// List returns bordereau headers
func (s *BordereauService) List(ctx context.Context, tenantID uuid.UUID, filter BordereauListFilter) ([]BordereauResponse, int64, error) {
	orderBy, orderDir := filter.OrderBy, filter.OrderDir
	if orderBy == "" {
		orderBy, orderDir = "created_at", "desc"
	}
	domainFilter := shared.NewFilter(filter.Page, filter.PageSize, orderBy, orderDir, "")
	if filter.Status != "" {
		domainFilter.Filters[bordereau.FilterStatus] = filter.Status
	}
	if filter.CompanyID != "" {
		domainFilter.Filters[bordereau.FilterCompanyID] = filter.CompanyID
	}

	items, err := s.bordereauRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.bordereauRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToBordereauResponses(items), total, nil
}

// Export renders the bordereau in each requested format, uploads the files
// and returns their download URLs. Formats are rendered concurrently.
func (s *BordereauService) Export(ctx context.Context, tenantID, id uuid.UUID, formats ...Format) ([]ExportResponse, error) {
	formats = lo.Uniq(formats)
	if len(formats) == 0 {
		return nil, shared.NewDomainError("INVALID_FORMAT", "At least one export format is required")
	}
	for _, f := range formats {
		if !f.IsValid() {
			return nil, shared.NewDomainError("INVALID_FORMAT", fmt.Sprintf("Unknown export format: %s", f))
		}
		if s.renderers[f] == nil {
			return nil, shared.NewDomainError("EXPORT_UNAVAILABLE", fmt.Sprintf("Export to %s is not configured", f))
		}
	}
	if s.storage == nil {
		return nil, shared.NewDomainError("EXPORT_UNAVAILABLE", "Object storage is not configured")
	}

	b, err := s.bordereauRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	comp, err := s.loadCompany(ctx, tenantID, b.CompanyID)
	if err != nil {
		return nil, err
	}
	statement := s.statementOf(b, comp)

	results := make([]ExportResponse, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		g.Go(func() error {
			res, err := s.exportOne(gctx, tenantID, statement, f)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *BordereauService) exportOne(ctx context.Context, tenantID uuid.UUID, statement *Statement, f Format) (*ExportResponse, error) {
	data, err := s.renderers[f].Render(ctx, statement)
	if err != nil {
		s.logger.Error("bordereau export failed",
			zap.String("reference", statement.Reference),
			zap.String("format", string(f)),
			zap.Error(err))
		return nil, shared.NewDomainError("EXPORT_FAILED", fmt.Sprintf("Could not render %s export", f))
	}

	fileName := fmt.Sprintf("%s.%s", statement.Reference, f)
	key := fmt.Sprintf("bordereaux/%s/%s", tenantID, fileName)
	if err := s.storage.PutObject(ctx, key, f.ContentType(), bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.downloadExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}

	return &ExportResponse{
		Format:      string(f),
		FileName:    fileName,
		StorageKey:  key,
		Size:        len(data),
		DownloadURL: url,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *BordereauService) statementOf(b *bordereau.Bordereau, comp *company.Company) *Statement {
	view := ToBordereauResponse(b)
	return &Statement{
		Reference:   b.Reference,
		CompanyCode: comp.Code,
		CompanyName: comp.Name,
		PeriodStart: b.Period.Start,
		PeriodEnd:   b.Period.End,
		Status:      string(b.Status),
		Lines:       view.Lines,
		Totals:      view.Totals,
		Notes:       b.Notes,
		GeneratedAt: b.GeneratedAt,
		PrintedAt:   s.now(),
	}
}

// collectLines snapshots the company's settled contracts created during
// period, resolving client names and registrations in two batch reads.
func (s *BordereauService) collectLines(ctx context.Context, tenantID, companyID uuid.UUID, period bordereau.Period) ([]bordereau.Line, error) {
	contracts, err := s.contractRepo.FindForSettlement(ctx, tenantID, companyID, period.Start, period.Until(), bordereau.SettledStatuses)
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return []bordereau.Line{}, nil
	}

	clientIDs := lo.Uniq(lo.Map(contracts, func(c contract.Contract, _ int) uuid.UUID { return c.ClientID }))
	vehicleIDs := lo.Uniq(lo.Map(contracts, func(c contract.Contract, _ int) uuid.UUID { return c.VehicleID }))

	var (
		clientNames   map[uuid.UUID]string
		registrations map[uuid.UUID]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		clients, err := s.clientRepo.FindByIDs(gctx, tenantID, clientIDs)
		if err != nil {
			return err
		}
		clientNames = lo.SliceToMap(clients, func(c client.Client) (uuid.UUID, string) { return c.ID, c.DisplayName() })
		return nil
	})
	g.Go(func() error {
		vehicles, err := s.vehicleRepo.FindByIDs(gctx, tenantID, vehicleIDs)
		if err != nil {
			return err
		}
		registrations = lo.SliceToMap(vehicles, func(v vehicle.Vehicle) (uuid.UUID, string) { return v.ID, v.RegistrationNumber })
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return lo.Map(contracts, func(c contract.Contract, _ int) bordereau.Line {
		return bordereau.NewLine(&c, clientNames[c.ClientID], registrations[c.VehicleID])
	}), nil
}

func (s *BordereauService) loadCompany(ctx context.Context, tenantID, companyID uuid.UUID) (*company.Company, error) {
	comp, err := s.companyRepo.FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		if shared.CodeOf(err) == shared.ErrNotFound.Code {
			return nil, shared.NewDomainError("COMPANY_NOT_FOUND", "Company not found")
		}
		return nil, err
	}
	return comp, nil
}
