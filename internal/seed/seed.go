// Package seed bootstraps a fresh install with a default admin account and,
// outside production, a small demo dataset.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/openhaus/atrium/internal/adjustment"
	authdomain "github.com/openhaus/atrium/internal/auth/domain"
	"github.com/openhaus/atrium/internal/auth/password"
	listingdomain "github.com/openhaus/atrium/internal/listing/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@atrium.local"
	defaultAdminPassword = "admin"
	defaultAdminDisplay  = "Atrium Admin"
)

// EnsureDefaultAdmin creates the bootstrap admin account if no user with
// its email exists. The account is flagged default so the UI can prompt for
// a password change on first login.
func EnsureDefaultAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.Where("email = ?", defaultAdminEmail).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(defaultAdminPassword)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Email:        strings.ToLower(defaultAdminEmail),
			DisplayName:  defaultAdminDisplay,
			Role:         authdomain.RoleAdmin,
			PasswordHash: &hashed,
			IsDefault:    true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Create(&user).Error
	})
}

// EnsureDemoListings seeds a few recognizable property records so the
// portal has something to show on a fresh local install.
func EnsureDemoListings(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		return err
	}

	records := []map[string]any{
		{
			"ListingId": "DEMO-1001",
			"UnparsedAddress": "1200 Maple Street",
			"City": "Austin",
			"StateOrProvince": "TX",
			"PostalCode": "78701",
			"ListPrice": 450000,
			"LivingArea": 2000,
			"BedroomsTotal": 3,
			"BathroomsTotal": 2,
			"GarageSpaces": 2,
			"YearBuilt": 2005,
			"LotSizeSquareFeet": 7500,
		},
		{
			"ListingId": "DEMO-1002",
			"UnparsedAddress": "48 Cedar Loop",
			"City": "Austin",
			"StateOrProvince": "TX",
			"PostalCode": "78702",
			"ListPrice": 438000,
			"ClosePrice": 432500,
			"LivingArea": 1850,
			"BedroomsTotal": 3,
			"BathroomsTotal": 2,
			"GarageSpaces": 2,
			"YearBuilt": 2001,
			"LotSizeSquareFeet": 6900,
			"PoolFeatures": "InGround",
		},
		{
			"ListingId": "DEMO-1003",
			"UnparsedAddress": "77 Pecan Court",
			"City": "Round Rock",
			"StateOrProvince": "TX",
			"PostalCode": "78664",
			"ListPrice": 525000,
			"LivingArea": 2400,
			"BedroomsTotal": 4,
			"BathroomsTotal": 3,
			"GarageSpaces": 3,
			"YearBuilt": 2015,
			"LotSizeSquareFeet": 8200,
		},
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			mls := record["ListingId"].(string)

			var existing listingdomain.Listing
			err := tx.Where("mls_number = ?", mls).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			status := listingdomain.StatusActive
			if adjustment.Number(record["ClosePrice"]) > 0 {
				status = listingdomain.StatusSold
			}

			snap := adjustment.FromRecord(record)
			now := time.Now().UTC()
			listing := listingdomain.Listing{
				ID:                node.Generate().Int64(),
				MLSNumber:         mls,
				Address:           snap.Address,
				City:              record["City"].(string),
				StateOrProvince:   record["StateOrProvince"].(string),
				PostalCode:        record["PostalCode"].(string),
				Status:            status,
				ListPrice:         adjustment.Number(record["ListPrice"]),
				ClosePrice:        adjustment.Number(record["ClosePrice"]),
				LivingArea:        snap.SquareFeet,
				Bedrooms:          snap.Bedrooms,
				Bathrooms:         snap.Bathrooms,
				GarageSpaces:      snap.Garage,
				YearBuilt:         int(snap.YearBuilt),
				LotSizeSquareFeet: snap.LotSize,
				PoolFeatures:      stringField(record, "PoolFeatures"),
				Attributes:        datatypes.JSONMap(record),
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if status == listingdomain.StatusSold {
				closeDate := now.AddDate(0, 0, -3)
				listing.CloseDate = &closeDate
			}

			if err := tx.Create(&listing).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func stringField(record map[string]any, key string) string {
	if value, ok := record[key].(string); ok {
		return value
	}
	return ""
}
