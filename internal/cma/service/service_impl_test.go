package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/openhaus/atrium/internal/adjustment"
	"github.com/openhaus/atrium/internal/cma/domain"
	cmarepository "github.com/openhaus/atrium/internal/cma/repository"
	"github.com/openhaus/atrium/internal/config"
	listingdomain "github.com/openhaus/atrium/internal/listing/domain"
	listingrepository "github.com/openhaus/atrium/internal/listing/repository"
	"github.com/openhaus/atrium/internal/usercontext"
	dbpkg "github.com/openhaus/atrium/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type testEnv struct {
	svc     domain.Service
	db      *gorm.DB
	genID   *snowflake.Node
	ownerID int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&listingdomain.Listing{},
		&domain.Report{},
		&domain.ReportComparable{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        cmarepository.Provide(),
		ListingRepo: listingrepository.Provide(),
		Rates:       config.NewStaticRatesHolder(adjustment.DefaultRates()),
	})

	return &testEnv{
		svc:     svc,
		db:      db,
		genID:   node,
		ownerID: node.Generate().Int64(),
	}
}

func (e *testEnv) ctx() context.Context {
	return usercontext.WithUser(context.Background(), e.ownerID, "agent")
}

func (e *testEnv) seedListing(t *testing.T, attributes map[string]any) listingdomain.Listing {
	t.Helper()
	snap := adjustment.FromRecord(attributes)
	l := listingdomain.Listing{
		ID:                e.genID.Generate().Int64(),
		MLSNumber:         snap.ID,
		Address:           snap.Address,
		Status:            listingdomain.StatusSold,
		LivingArea:        snap.SquareFeet,
		Bedrooms:          snap.Bedrooms,
		Bathrooms:         snap.Bathrooms,
		GarageSpaces:      snap.Garage,
		YearBuilt:         int(snap.YearBuilt),
		LotSizeSquareFeet: snap.LotSize,
		ClosePrice:        snap.Price,
	}
	if pool, ok := attributes["PoolFeatures"].(string); ok {
		l.PoolFeatures = pool
	}
	l.Attributes = datatypes.JSONMap(attributes)
	require.NoError(t, e.db.Create(&l).Error)
	return l
}

func subjectAttributes() map[string]any {
	return map[string]any{
		"ListingId":       "SUBJ-1",
		"UnparsedAddress": "10 Main St",
		"LivingArea":      float64(2000),
		"BedroomsTotal":   float64(3),
		"BathroomsTotal":  float64(2),
		"ClosePrice":      float64(500000),
	}
}

func compAttributes() map[string]any {
	return map[string]any{
		"ListingId":       "COMP-1",
		"UnparsedAddress": "12 Main St",
		"LivingArea":      float64(1800),
		"BedroomsTotal":   float64(3),
		"BathroomsTotal":  float64(2),
		"PoolFeatures":    "InGround",
		"ClosePrice":      float64(450000),
	}
}

func TestCreateAndGetReport(t *testing.T) {
	env := newTestEnv(t)
	subject := env.seedListing(t, subjectAttributes())

	created, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Title:            "Main Street Analysis",
		SubjectListingID: snowflake.ID(subject.ID).String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "main-street-analysis", created.Slug)
	assert.Equal(t, domain.ReportStatusDraft, created.Status)

	got, err := env.svc.Get(env.ctx(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Empty(t, got.Comparables)
}

func TestCreateRejectsMissingSubject(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Title:            "No Subject",
		SubjectListingID: env.genID.Generate().String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidListing)
}

func TestGetRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	subject := env.seedListing(t, subjectAttributes())

	created, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Title:            "Private Report",
		SubjectListingID: snowflake.ID(subject.ID).String(),
	})
	require.NoError(t, err)

	otherCtx := usercontext.WithUser(context.Background(), env.genID.Generate().Int64(), "agent")
	_, err = env.svc.Get(otherCtx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	adminCtx := usercontext.WithUser(context.Background(), env.genID.Generate().Int64(), "admin")
	_, err = env.svc.Get(adminCtx, created.ID)
	assert.NoError(t, err)
}

func TestComparableLifecycle(t *testing.T) {
	env := newTestEnv(t)
	subject := env.seedListing(t, subjectAttributes())
	compA := env.seedListing(t, map[string]any{"ListingId": "COMP-A", "UnparsedAddress": "1 Oak", "ClosePrice": float64(400000)})
	compB := env.seedListing(t, map[string]any{"ListingId": "COMP-B", "UnparsedAddress": "2 Oak", "ClosePrice": float64(410000)})

	created, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Title:            "Comp Lifecycle",
		SubjectListingID: snowflake.ID(subject.ID).String(),
	})
	require.NoError(t, err)

	_, err = env.svc.AddComparable(env.ctx(), created.ID, snowflake.ID(compA.ID).String())
	require.NoError(t, err)
	resp, err := env.svc.AddComparable(env.ctx(), created.ID, snowflake.ID(compB.ID).String())
	require.NoError(t, err)
	assert.Equal(t, []string{
		snowflake.ID(compA.ID).String(),
		snowflake.ID(compB.ID).String(),
	}, resp.Comparables)

	// Subject cannot be its own comparable, and duplicates are rejected.
	_, err = env.svc.AddComparable(env.ctx(), created.ID, snowflake.ID(subject.ID).String())
	assert.ErrorIs(t, err, domain.ErrSubjectIsComp)
	_, err = env.svc.AddComparable(env.ctx(), created.ID, snowflake.ID(compA.ID).String())
	assert.ErrorIs(t, err, domain.ErrDuplicateComp)

	resp, err = env.svc.ReorderComparables(env.ctx(), created.ID, []string{
		snowflake.ID(compB.ID).String(),
		snowflake.ID(compA.ID).String(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		snowflake.ID(compB.ID).String(),
		snowflake.ID(compA.ID).String(),
	}, resp.Comparables)

	// Reorder must name every comparable exactly once.
	_, err = env.svc.ReorderComparables(env.ctx(), created.ID, []string{
		snowflake.ID(compA.ID).String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)

	resp, err = env.svc.RemoveComparable(env.ctx(), created.ID, snowflake.ID(compB.ID).String())
	require.NoError(t, err)
	assert.Equal(t, []string{snowflake.ID(compA.ID).String()}, resp.Comparables)
}

func TestPublishAndPublicLookup(t *testing.T) {
	env := newTestEnv(t)
	subject := env.seedListing(t, subjectAttributes())

	created, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Title:            "Publish Me",
		SubjectListingID: snowflake.ID(subject.ID).String(),
	})
	require.NoError(t, err)

	// Drafts are invisible to the public path.
	_, err = env.svc.GetPublished(context.Background(), created.Slug)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	published, err := env.svc.Publish(env.ctx(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)

	_, err = env.svc.Publish(env.ctx(), created.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyPublished)

	public, err := env.svc.GetPublished(context.Background(), created.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.ID, public.ID)
}

func TestComputePublished(t *testing.T) {
	env := newTestEnv(t)
	subject := env.seedListing(t, subjectAttributes())
	comp := env.seedListing(t, compAttributes())

	created, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Title:            "Public Compute",
		SubjectListingID: snowflake.ID(subject.ID).String(),
	})
	require.NoError(t, err)
	_, err = env.svc.AddComparable(env.ctx(), created.ID, snowflake.ID(comp.ID).String())
	require.NoError(t, err)

	_, err = env.svc.ComputePublished(context.Background(), created.Slug)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.Publish(env.ctx(), created.ID)
	require.NoError(t, err)

	computed, err := env.svc.ComputePublished(context.Background(), created.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.ID, computed.ReportID)
	require.Len(t, computed.Results, 1)
	assert.Equal(t, 435000.0, computed.Results[0].AdjustedPrice)
}

func TestAdjustmentConfigRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	subject := env.seedListing(t, subjectAttributes())

	created, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Title:            "Config Report",
		SubjectListingID: snowflake.ID(subject.ID).String(),
	})
	require.NoError(t, err)

	// New reports start enabled with no overrides.
	cfg, err := env.svc.GetAdjustmentConfig(env.ctx(), created.ID)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Empty(t, cfg.Rates)

	saved, err := env.svc.PutAdjustmentConfig(env.ctx(), created.ID, domain.AdjustmentConfig{
		Enabled: true,
		Rates:   map[string]float64{domain.RateSquareFeet: 75},
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, saved.Rates[domain.RateSquareFeet])

	cfg, err = env.svc.GetAdjustmentConfig(env.ctx(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, cfg.Rates[domain.RateSquareFeet])

	_, err = env.svc.PutAdjustmentConfig(env.ctx(), created.ID, domain.AdjustmentConfig{
		Rates: map[string]float64{"closet_count": 100},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRate)
}

func TestComputeAdjustments(t *testing.T) {
	env := newTestEnv(t)
	subject := env.seedListing(t, subjectAttributes())
	comp := env.seedListing(t, compAttributes())

	created, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Title:            "Compute Report",
		SubjectListingID: snowflake.ID(subject.ID).String(),
	})
	require.NoError(t, err)
	_, err = env.svc.AddComparable(env.ctx(), created.ID, snowflake.ID(comp.ID).String())
	require.NoError(t, err)

	computed, err := env.svc.ComputeAdjustments(env.ctx(), created.ID)
	require.NoError(t, err)
	require.Len(t, computed.Results, 1)

	// Subject is 200 sqft larger (+10000 at $50) and has no pool while the
	// comp does (-25000).
	result := computed.Results[0]
	assert.Equal(t, "COMP-1", result.CompID)
	assert.Equal(t, 450000.0, result.SalePrice)
	assert.Equal(t, -15000.0, result.TotalAdjustment)
	assert.Equal(t, 435000.0, result.AdjustedPrice)
	assert.Equal(t, []string{adjustment.FeatureSquareFeet, adjustment.FeaturePool}, computed.Features)
}

func TestComputeSeesListShapedPoolFeatures(t *testing.T) {
	env := newTestEnv(t)
	subject := env.seedListing(t, subjectAttributes())
	comp := env.seedListing(t, map[string]any{
		"ListingId":       "COMP-2",
		"UnparsedAddress": "14 Main St",
		"LivingArea":      float64(2000),
		"BedroomsTotal":   float64(3),
		"BathroomsTotal":  float64(2),
		"PoolFeatures":    []any{"In Ground", "Heated"},
		"ClosePrice":      float64(480000),
	})

	created, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Title:            "Pool Shapes",
		SubjectListingID: snowflake.ID(subject.ID).String(),
	})
	require.NoError(t, err)
	_, err = env.svc.AddComparable(env.ctx(), created.ID, snowflake.ID(comp.ID).String())
	require.NoError(t, err)

	computed, err := env.svc.ComputeAdjustments(env.ctx(), created.ID)
	require.NoError(t, err)
	require.Len(t, computed.Results, 1)

	// The comp's pool arrives as a feature list; the subject has none, so
	// the pool line subtracts the full rate.
	result := computed.Results[0]
	assert.Equal(t, -25000.0, result.TotalAdjustment)
	assert.Equal(t, []string{adjustment.FeaturePool}, computed.Features)
}

func TestComputeHonorsConfig(t *testing.T) {
	env := newTestEnv(t)
	subject := env.seedListing(t, subjectAttributes())
	comp := env.seedListing(t, compAttributes())

	created, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Title:            "Configured Compute",
		SubjectListingID: snowflake.ID(subject.ID).String(),
	})
	require.NoError(t, err)
	_, err = env.svc.AddComparable(env.ctx(), created.ID, snowflake.ID(comp.ID).String())
	require.NoError(t, err)

	// A custom sqft rate changes the square footage line.
	override := 4000.0
	_, err = env.svc.PutAdjustmentConfig(env.ctx(), created.ID, domain.AdjustmentConfig{
		Enabled: true,
		Rates:   map[string]float64{domain.RateSquareFeet: 100},
		CompAdjustments: map[string]adjustment.Overrides{
			snowflake.ID(comp.ID).String(): {Pool: &override},
		},
	})
	require.NoError(t, err)

	computed, err := env.svc.ComputeAdjustments(env.ctx(), created.ID)
	require.NoError(t, err)
	require.Len(t, computed.Results, 1)
	assert.Equal(t, 24000.0, computed.Results[0].TotalAdjustment)

	// Disabling adjustments keeps the comparables at their sale prices.
	_, err = env.svc.PutAdjustmentConfig(env.ctx(), created.ID, domain.AdjustmentConfig{Enabled: false})
	require.NoError(t, err)

	computed, err = env.svc.ComputeAdjustments(env.ctx(), created.ID)
	require.NoError(t, err)
	require.Len(t, computed.Results, 1)
	assert.Empty(t, computed.Results[0].Lines)
	assert.Equal(t, 450000.0, computed.Results[0].AdjustedPrice)
	assert.Empty(t, computed.Features)
}

func TestDeleteRemovesComparables(t *testing.T) {
	env := newTestEnv(t)
	subject := env.seedListing(t, subjectAttributes())
	comp := env.seedListing(t, compAttributes())

	created, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Title:            "Doomed Report",
		SubjectListingID: snowflake.ID(subject.ID).String(),
	})
	require.NoError(t, err)
	_, err = env.svc.AddComparable(env.ctx(), created.ID, snowflake.ID(comp.ID).String())
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(env.ctx(), created.ID))

	_, err = env.svc.Get(env.ctx(), created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var count int64
	require.NoError(t, env.db.Model(&domain.ReportComparable{}).Count(&count).Error)
	assert.Zero(t, count)
}
