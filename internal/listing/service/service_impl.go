package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/openhaus/atrium/internal/adjustment"
	"github.com/openhaus/atrium/internal/listing/domain"
	"github.com/openhaus/atrium/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("listing.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (*domain.Response, error) {
	mlsNumber := strings.TrimSpace(req.MLSNumber)
	if mlsNumber == "" {
		return nil, domain.ErrInvalidMLSNumber
	}
	status, err := normalizeStatus(req.Status)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByMLSNumber(ctx, s.db, mlsNumber)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if existing == nil {
		l := &domain.Listing{
			ID:        s.genID.Generate().Int64(),
			MLSNumber: mlsNumber,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyAttributes(l, req.Attributes)
		if err := s.repo.Create(ctx, s.db, l); err != nil {
			return nil, err
		}
		s.log.Info("listing created",
			zap.String("listing_id", snowflake.ID(l.ID).String()),
			zap.String("mls_number", mlsNumber),
		)
		resp := toResponse(l)
		return &resp, nil
	}

	existing.Status = status
	applyAttributes(existing, req.Attributes)
	existing.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return nil, err
	}
	resp := toResponse(existing)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	listingID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, listingID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) GetByMLSNumber(ctx context.Context, mlsNumber string) (*domain.Response, error) {
	mlsNumber = strings.TrimSpace(mlsNumber)
	if mlsNumber == "" {
		return nil, domain.ErrInvalidMLSNumber
	}
	item, err := s.repo.FindByMLSNumber(ctx, s.db, mlsNumber)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Response, *pagination.PageInfo, error) {
	items, err := s.repo.Search(ctx, s.db, req)
	if err != nil {
		return nil, nil, err
	}

	refs := make([]*domain.Listing, 0, len(items))
	for i := range items {
		refs = append(refs, &items[i])
	}
	size := req.PageSize
	if size <= 0 {
		size = 10
	}
	refs, pageInfo := pagination.BuildCursorPageInfo(refs, size, func(l *domain.Listing) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        snowflake.ID(l.ID).String(),
			CreatedAt: l.CreatedAt.Format(time.RFC3339Nano),
		})
		return token
	})

	resp := make([]domain.Response, 0, len(refs))
	for _, l := range refs {
		resp = append(resp, toResponse(l))
	}
	return resp, pageInfo, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	listingID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, listingID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Status != nil {
		status, err := normalizeStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		item.Status = status
	}
	if req.ClosePrice != nil {
		item.ClosePrice = *req.ClosePrice
	}
	if req.CloseDate != nil {
		closeDate := req.CloseDate.UTC()
		item.CloseDate = &closeDate
	}
	if req.Attributes != nil {
		applyAttributes(item, req.Attributes)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	listingID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, listingID.Int64())
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, s.db, listingID.Int64())
}

func (s *Service) RecentlyClosed(ctx context.Context, since time.Time, limit int) ([]domain.Response, error) {
	items, err := s.repo.FindClosedSince(ctx, s.db, since.UTC(), limit)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

// applyAttributes projects the raw feed record onto the typed search columns
// through the same coercion the adjustment engine applies, then stores the
// record verbatim.
func applyAttributes(l *domain.Listing, attributes map[string]any) {
	if attributes == nil {
		return
	}
	snap := adjustment.FromRecord(attributes)
	// The column stores what the feed actually said; the "Unknown Address"
	// display fallback stays a render-time concern.
	l.Address = adjustment.RecordAddress(attributes)
	l.LivingArea = snap.SquareFeet
	l.Bedrooms = snap.Bedrooms
	l.Bathrooms = snap.Bathrooms
	l.GarageSpaces = snap.Garage
	l.YearBuilt = int(snap.YearBuilt)
	l.LotSizeSquareFeet = snap.LotSize

	if city, ok := attributes["City"].(string); ok {
		l.City = strings.TrimSpace(city)
	}
	if state, ok := attributes["StateOrProvince"].(string); ok {
		l.StateOrProvince = strings.TrimSpace(state)
	}
	if postal, ok := attributes["PostalCode"].(string); ok {
		l.PostalCode = strings.TrimSpace(postal)
	}
	l.PoolFeatures = poolFeaturesField(attributes["PoolFeatures"])
	l.ListPrice = numberField(attributes, "ListPrice")
	l.ClosePrice = numberField(attributes, "ClosePrice", "SoldPrice")

	l.Attributes = datatypes.JSONMap(attributes)
}

// poolFeaturesField flattens the feed's pool features into the text column.
// Feeds deliver the field as a plain string or as a list of strings.
func poolFeaturesField(v any) string {
	switch features := v.(type) {
	case string:
		return strings.TrimSpace(features)
	case []string:
		return joinFeatures(features)
	case []any:
		parts := make([]string, 0, len(features))
		for _, f := range features {
			if s, ok := f.(string); ok {
				parts = append(parts, s)
			}
		}
		return joinFeatures(parts)
	default:
		return ""
	}
}

func joinFeatures(features []string) string {
	parts := make([]string, 0, len(features))
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ", ")
}

// numberField coerces the first non-zero price-like attribute, tolerating
// formatted strings such as "$385,000".
func numberField(attributes map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if n := adjustment.Number(attributes[key]); n != 0 {
			return n
		}
	}
	return 0
}

func normalizeStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case domain.StatusActive, "":
		return domain.StatusActive, nil
	case domain.StatusPending:
		return domain.StatusPending, nil
	case domain.StatusSold:
		return domain.StatusSold, nil
	default:
		return "", domain.ErrInvalidStatus
	}
}

func toResponse(l *domain.Listing) domain.Response {
	resp := domain.Response{
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
	if len(l.Attributes) > 0 {
		resp.Attributes = map[string]any(l.Attributes)
	}
	return resp
}
