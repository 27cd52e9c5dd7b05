package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/openhaus/atrium/internal/adjustment"
	"github.com/openhaus/atrium/internal/cma/domain"
	"github.com/openhaus/atrium/internal/config"
	listingdomain "github.com/openhaus/atrium/internal/listing/domain"
	"github.com/openhaus/atrium/internal/usercontext"
	"github.com/openhaus/atrium/pkg/db"
	"github.com/openhaus/atrium/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Renderer turns a computed report into a printable document.
type Renderer interface {
	RenderReport(ctx context.Context, report *domain.ComputedReport) ([]byte, error)
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	ListingRepo listingdomain.Repository
	Rates       *config.RatesHolder
	Renderer    Renderer `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	listingRepo listingdomain.Repository
	rates       *config.RatesHolder
	renderer    Renderer
	genID       *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("cma.service"),
		repo:        p.Repo,
		listingRepo: p.ListingRepo,
		rates:       p.Rates,
		renderer:    p.Renderer,
		genID:       p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	subjectID, err := snowflake.ParseString(strings.TrimSpace(req.SubjectListingID))
	if err != nil {
		return nil, domain.ErrInvalidListing
	}
	subject, err := s.listingRepo.FindByID(ctx, s.db, subjectID.Int64())
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, domain.ErrInvalidListing
	}

	defaultConfig, err := json.Marshal(domain.AdjustmentConfig{Enabled: true})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	report := &domain.Report{
		ID:               s.genID.Generate().Int64(),
		OwnerID:          ownerID,
		Title:            title,
		Slug:             slug.Make(title),
		SubjectListingID: subjectID.Int64(),
		Status:           domain.ReportStatusDraft,
		AdjustmentConfig: datatypes.JSON(defaultConfig),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, s.db, report); err != nil {
		if db.IsDuplicateKeyErr(err) {
			report.Slug = fmt.Sprintf("%s-%s", report.Slug, snowflake.ID(report.ID).Base36())
			err = s.repo.Create(ctx, s.db, report)
		}
		if err != nil {
			return nil, err
		}
	}

	s.log.Info("cma report created",
		zap.String("report_id", snowflake.ID(report.ID).String()),
		zap.String("slug", report.Slug),
	)
	return s.toResponse(ctx, report)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	report, err := s.loadOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, report)
}

func (s *Service) GetPublished(ctx context.Context, reportSlug string) (*domain.Response, error) {
	report, err := s.repo.FindBySlug(ctx, s.db, reportSlug)
	if err != nil {
		return nil, err
	}
	if report == nil || report.Status != domain.ReportStatusPublished {
		return nil, domain.ErrNotFound
	}
	return s.toResponse(ctx, report)
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, *pagination.PageInfo, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, nil, err
	}

	reports, err := s.repo.FindByOwner(ctx, s.db, ownerID, req)
	if err != nil {
		return nil, nil, err
	}

	refs := make([]*domain.Report, 0, len(reports))
	for i := range reports {
		refs = append(refs, &reports[i])
	}
	size := req.PageSize
	if size <= 0 {
		size = 10
	}
	refs, pageInfo := pagination.BuildCursorPageInfo(refs, size, func(r *domain.Report) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        snowflake.ID(r.ID).String(),
			CreatedAt: r.CreatedAt.Format(time.RFC3339Nano),
		})
		return token
	})

	resp := make([]domain.Response, 0, len(refs))
	for _, report := range refs {
		item, err := s.toResponse(ctx, report)
		if err != nil {
			return nil, nil, err
		}
		resp = append(resp, *item)
	}
	return resp, pageInfo, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	report, err := s.loadOwned(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		report.Title = title
	}
	if req.SubjectListingID != nil {
		subjectID, err := snowflake.ParseString(strings.TrimSpace(*req.SubjectListingID))
		if err != nil {
			return nil, domain.ErrInvalidListing
		}
		subject, err := s.listingRepo.FindByID(ctx, s.db, subjectID.Int64())
		if err != nil {
			return nil, err
		}
		if subject == nil {
			return nil, domain.ErrInvalidListing
		}
		report.SubjectListingID = subjectID.Int64()
	}

	report.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, report); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, report)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	report, err := s.loadOwned(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, report.ID)
}

func (s *Service) Publish(ctx context.Context, id string) (*domain.Response, error) {
	report, err := s.loadOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status == domain.ReportStatusPublished {
		return nil, domain.ErrAlreadyPublished
	}

	now := time.Now().UTC()
	report.Status = domain.ReportStatusPublished
	report.PublishedAt = &now
	report.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, report); err != nil {
		return nil, err
	}

	s.log.Info("cma report published",
		zap.String("report_id", snowflake.ID(report.ID).String()),
		zap.String("slug", report.Slug),
	)
	return s.toResponse(ctx, report)
}

func (s *Service) AddComparable(ctx context.Context, reportID, listingID string) (*domain.Response, error) {
	report, err := s.loadOwned(ctx, reportID)
	if err != nil {
		return nil, err
	}

	compID, err := snowflake.ParseString(strings.TrimSpace(listingID))
	if err != nil {
		return nil, domain.ErrInvalidListing
	}
	if compID.Int64() == report.SubjectListingID {
		return nil, domain.ErrSubjectIsComp
	}
	comp, err := s.listingRepo.FindByID(ctx, s.db, compID.Int64())
	if err != nil {
		return nil, err
	}
	if comp == nil {
		return nil, domain.ErrInvalidListing
	}

	existing, err := s.repo.FindComparables(ctx, s.db, report.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		if c.ListingID == compID.Int64() {
			return nil, domain.ErrDuplicateComp
		}
	}

	entry := &domain.ReportComparable{
		ID:        s.genID.Generate().Int64(),
		ReportID:  report.ID,
		ListingID: compID.Int64(),
		Position:  len(existing),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AddComparable(ctx, s.db, entry); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateComp
		}
		return nil, err
	}
	return s.toResponse(ctx, report)
}

func (s *Service) RemoveComparable(ctx context.Context, reportID, listingID string) (*domain.Response, error) {
	report, err := s.loadOwned(ctx, reportID)
	if err != nil {
		return nil, err
	}
	compID, err := snowflake.ParseString(strings.TrimSpace(listingID))
	if err != nil {
		return nil, domain.ErrInvalidListing
	}
	if err := s.repo.RemoveComparable(ctx, s.db, report.ID, compID.Int64()); err != nil {
		return nil, err
	}

	// Close the position gap left by the removal.
	remaining, err := s.repo.FindComparables(ctx, s.db, report.ID)
	if err != nil {
		return nil, err
	}
	ordered := make([]int64, 0, len(remaining))
	for _, c := range remaining {
		ordered = append(ordered, c.ListingID)
	}
	if err := s.repo.ReplacePositions(ctx, s.db, report.ID, ordered); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, report)
}

func (s *Service) ReorderComparables(ctx context.Context, reportID string, orderedListingIDs []string) (*domain.Response, error) {
	report, err := s.loadOwned(ctx, reportID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindComparables(ctx, s.db, report.ID)
	if err != nil {
		return nil, err
	}
	current := make(map[int64]bool, len(existing))
	for _, c := range existing {
		current[c.ListingID] = true
	}

	if len(orderedListingIDs) != len(existing) {
		return nil, domain.ErrInvalidPosition
	}
	ordered := make([]int64, 0, len(orderedListingIDs))
	seen := make(map[int64]bool, len(orderedListingIDs))
	for _, raw := range orderedListingIDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil || !current[id.Int64()] || seen[id.Int64()] {
			return nil, domain.ErrInvalidPosition
		}
		seen[id.Int64()] = true
		ordered = append(ordered, id.Int64())
	}

	if err := s.repo.ReplacePositions(ctx, s.db, report.ID, ordered); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, report)
}

func (s *Service) GetAdjustmentConfig(ctx context.Context, reportID string) (*domain.AdjustmentConfig, error) {
	report, err := s.loadOwned(ctx, reportID)
	if err != nil {
		return nil, err
	}
	cfg := decodeConfig(report)
	return &cfg, nil
}

func (s *Service) PutAdjustmentConfig(ctx context.Context, reportID string, cfg domain.AdjustmentConfig) (*domain.AdjustmentConfig, error) {
	report, err := s.loadOwned(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := validateRateKeys(cfg.Rates); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	report.AdjustmentConfig = datatypes.JSON(raw)
	report.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, report); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Service) ComputeAdjustments(ctx context.Context, reportID string) (*domain.ComputedReport, error) {
	report, err := s.loadOwned(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return s.compute(ctx, report)
}

func (s *Service) ComputePublished(ctx context.Context, reportSlug string) (*domain.ComputedReport, error) {
	report, err := s.repo.FindBySlug(ctx, s.db, reportSlug)
	if err != nil {
		return nil, err
	}
	if report == nil || report.Status != domain.ReportStatusPublished {
		return nil, domain.ErrNotFound
	}
	return s.compute(ctx, report)
}

func (s *Service) RenderPDF(ctx context.Context, reportID string) ([]byte, error) {
	report, err := s.loadOwned(ctx, reportID)
	if err != nil {
		return nil, err
	}
	computed, err := s.compute(ctx, report)
	if err != nil {
		return nil, err
	}
	if s.renderer == nil {
		return nil, domain.ErrNotFound
	}
	return s.renderer.RenderReport(ctx, computed)
}

func (s *Service) compute(ctx context.Context, report *domain.Report) (*domain.ComputedReport, error) {
	subject, err := s.listingRepo.FindByID(ctx, s.db, report.SubjectListingID)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, domain.ErrNoSubject
	}

	comps, err := s.repo.FindComparables(ctx, s.db, report.ID)
	if err != nil {
		return nil, err
	}
	compIDs := make([]int64, 0, len(comps))
	for _, c := range comps {
		compIDs = append(compIDs, c.ListingID)
	}
	listings, err := s.listingRepo.FindByIDs(ctx, s.db, compIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*listingdomain.Listing, len(listings))
	for i := range listings {
		byID[listings[i].ID] = &listings[i]
	}

	cfg := decodeConfig(report)
	rates := cfg.EffectiveRates(s.rates.Current())
	subjectSnap := adjustment.FromRecord(subject.Record())

	results := make([]adjustment.Result, 0, len(comps))
	for _, c := range comps {
		comp, ok := byID[c.ListingID]
		if !ok {
			continue
		}
		compSnap := adjustment.FromRecord(comp.Record())
		if !cfg.Enabled {
			results = append(results, adjustment.Result{
				CompID:        compSnap.ID,
				CompAddress:   compSnap.Address,
				SalePrice:     compSnap.Price,
				AdjustedPrice: compSnap.Price,
			})
			continue
		}
		ov := cfg.OverridesFor(snowflake.ID(comp.ID).String())
		results = append(results, adjustment.Calculate(subjectSnap, compSnap, rates, ov))
	}

	return &domain.ComputedReport{
		ReportID: snowflake.ID(report.ID).String(),
		Title:    report.Title,
		Enabled:  cfg.Enabled,
		Rates:    rates,
		Subject:  listingResponse(subject),
		Results:  results,
		Features: adjustment.UniqueFeatures(results),
	}, nil
}

func (s *Service) loadOwned(ctx context.Context, id string) (*domain.Report, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	reportID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	// Admins see every report; agents only their own.
	scope := ownerID
	if role, _ := usercontext.RoleFromContext(ctx); role == "admin" {
		scope = 0
	}
	report, err := s.repo.FindByID(ctx, s.db, scope, reportID.Int64())
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, domain.ErrNotFound
	}
	return report, nil
}

func (s *Service) toResponse(ctx context.Context, report *domain.Report) (*domain.Response, error) {
	comps, err := s.repo.FindComparables(ctx, s.db, report.ID)
	if err != nil {
		return nil, err
	}
	compIDs := make([]string, 0, len(comps))
	for _, c := range comps {
		compIDs = append(compIDs, snowflake.ID(c.ListingID).String())
	}
	return &domain.Response{
		ID:               snowflake.ID(report.ID).String(),
		OwnerID:          snowflake.ID(report.OwnerID).String(),
		Title:            report.Title,
		Slug:             report.Slug,
		SubjectListingID: snowflake.ID(report.SubjectListingID).String(),
		Status:           report.Status,
		Comparables:      compIDs,
		PublishedAt:      report.PublishedAt,
		CreatedAt:        report.CreatedAt,
		UpdatedAt:        report.UpdatedAt,
	}, nil
}

func ownerFromContext(ctx context.Context) (int64, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return 0, domain.ErrInvalidUser
	}
	return userID.Int64(), nil
}

func decodeConfig(report *domain.Report) domain.AdjustmentConfig {
	cfg := domain.AdjustmentConfig{Enabled: true}
	if len(report.AdjustmentConfig) == 0 {
		return cfg
	}
	if err := json.Unmarshal(report.AdjustmentConfig, &cfg); err != nil {
		return domain.AdjustmentConfig{Enabled: true}
	}
	return cfg
}

func validateRateKeys(rates map[string]float64) error {
	allowed := map[string]bool{
		domain.RateSquareFeet: true,
		domain.RateBedroom:    true,
		domain.RateBathroom:   true,
		domain.RatePool:       true,
		domain.RateGarage:     true,
		domain.RateYearBuilt:  true,
		domain.RateLotSize:    true,
	}
	for key := range rates {
		if !allowed[key] {
			return domain.ErrInvalidRate
		}
	}
	return nil
}

func listingResponse(l *listingdomain.Listing) listingdomain.Response {
	return listingdomain.Response{
		ID:                snowflake.ID(l.ID).String(),
		MLSNumber:         l.MLSNumber,
		Address:           l.Address,
		City:              l.City,
		StateOrProvince:   l.StateOrProvince,
		PostalCode:        l.PostalCode,
		Status:            l.Status,
		ListPrice:         l.ListPrice,
		ClosePrice:        l.ClosePrice,
		LivingArea:        l.LivingArea,
		Bedrooms:          l.Bedrooms,
		Bathrooms:         l.Bathrooms,
		GarageSpaces:      l.GarageSpaces,
		YearBuilt:         l.YearBuilt,
		LotSizeSquareFeet: l.LotSizeSquareFeet,
		PoolFeatures:      l.PoolFeatures,
		CloseDate:         l.CloseDate,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}
