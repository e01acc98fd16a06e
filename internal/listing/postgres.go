package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/greg-kim/auctionreel/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource implements Source against the listings table using pgx/v5.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) Name() string { return "postgres" }

const listingColumns = `case_number, court, asset_type, asset_type_name, address, address_detail,
	region, district, land_area, building_area, land_area_sqm, building_area_sqm,
	floor, build_year, structure, appraisal_value, minimum_bid, minimum_bid_percent,
	auction_date, auction_round, bid_deposit_percent, risk_level, has_occupant,
	has_lease, lease_deposit, monthly_rent, zoning, road_access, image_urls`

func (s *PostgresSource) GetListing(ctx context.Context, caseNumber string) (*models.Listing, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE case_number = $1`, caseNumber)

	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (s *PostgresSource) SearchListings(ctx context.Context, limit int) ([]*models.Listing, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+listingColumns+` FROM listings ORDER BY auction_date, case_number LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	defer rows.Close()

	var out []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PostgresSource) FetchImages(ctx context.Context, l *models.Listing, dir string) ([]string, error) {
	return fetchImageURLs(ctx, l, dir)
}

// UpsertListing inserts or replaces a listing record, keyed by case number.
func (s *PostgresSource) UpsertListing(ctx context.Context, l *models.Listing) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO listings (`+listingColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29)
		 ON CONFLICT (case_number) DO UPDATE SET
			court = EXCLUDED.court, asset_type = EXCLUDED.asset_type,
			asset_type_name = EXCLUDED.asset_type_name, address = EXCLUDED.address,
			address_detail = EXCLUDED.address_detail, region = EXCLUDED.region,
			district = EXCLUDED.district, land_area = EXCLUDED.land_area,
			building_area = EXCLUDED.building_area, land_area_sqm = EXCLUDED.land_area_sqm,
			building_area_sqm = EXCLUDED.building_area_sqm, floor = EXCLUDED.floor,
			build_year = EXCLUDED.build_year, structure = EXCLUDED.structure,
			appraisal_value = EXCLUDED.appraisal_value, minimum_bid = EXCLUDED.minimum_bid,
			minimum_bid_percent = EXCLUDED.minimum_bid_percent, auction_date = EXCLUDED.auction_date,
			auction_round = EXCLUDED.auction_round, bid_deposit_percent = EXCLUDED.bid_deposit_percent,
			risk_level = EXCLUDED.risk_level, has_occupant = EXCLUDED.has_occupant,
			has_lease = EXCLUDED.has_lease, lease_deposit = EXCLUDED.lease_deposit,
			monthly_rent = EXCLUDED.monthly_rent, zoning = EXCLUDED.zoning,
			road_access = EXCLUDED.road_access, image_urls = EXCLUDED.image_urls,
			updated_at = NOW()`,
		l.CaseNumber, l.Court, l.AssetType, l.AssetTypeName, l.Address, l.AddressDetail,
		l.Region, l.District, l.LandArea, l.BuildingArea, l.LandAreaSqm, l.BuildingAreaSqm,
		l.Floor, l.BuildYear, l.Structure, l.AppraisalValue, l.MinimumBid, l.MinimumBidPercent,
		l.AuctionDate, l.AuctionRound, l.BidDepositPercent, l.RiskLevel, l.HasOccupant,
		l.HasLease, l.LeaseDeposit, l.MonthlyRent, l.Zoning, l.RoadAccess, l.ImageURLs)
	if err != nil {
		return fmt.Errorf("upsert listing: %w", err)
	}
	return nil
}

func scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(
		&l.CaseNumber, &l.Court, &l.AssetType, &l.AssetTypeName, &l.Address, &l.AddressDetail,
		&l.Region, &l.District, &l.LandArea, &l.BuildingArea, &l.LandAreaSqm, &l.BuildingAreaSqm,
		&l.Floor, &l.BuildYear, &l.Structure, &l.AppraisalValue, &l.MinimumBid, &l.MinimumBidPercent,
		&l.AuctionDate, &l.AuctionRound, &l.BidDepositPercent, &l.RiskLevel, &l.HasOccupant,
		&l.HasLease, &l.LeaseDeposit, &l.MonthlyRent, &l.Zoning, &l.RoadAccess, &l.ImageURLs)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

var _ Source = (*PostgresSource)(nil)
