// Package models contains shared data models used across the auctionreel codebase.
package models

// Asset types used in Korean court auction records.
const (
	AssetTypeApartment  = "APT"
	AssetTypeLand       = "LAND"
	AssetTypeCommercial = "COMMERCIAL"
	AssetTypeHouse      = "HOUSE"
	AssetTypeOffice     = "OFFICE"
	AssetTypeFactory    = "FACTORY"
	AssetTypeOther      = "OTHER"
)

// Risk assessment levels for a listing.
const (
	RiskSafe    = "safe"
	RiskCaution = "caution"
	RiskDanger  = "danger"
)

// RightIssue is a registered right that affects an auctioned property.
type RightIssue struct {
	Type            string `json:"type"`
	TypeName        string `json:"type_name"`
	Description     string `json:"description"`
	RiskLevel       string `json:"risk_level"`
	SurvivesAuction bool   `json:"survives_auction"`
	Amount          int64  `json:"amount,omitempty"`
	Priority        int    `json:"priority,omitempty"`
}

// Listing is one court auction case record. Monetary amounts are in won,
// areas in pyeong unless the _sqm variant is set.
type Listing struct {
	CaseNumber    string `db:"case_number"     json:"case_number"     validate:"required"`
	Court         string `db:"court"           json:"court"           validate:"required"`
	AssetType     string `db:"asset_type"      json:"asset_type"`
	AssetTypeName string `db:"asset_type_name" json:"asset_type_name"`

	Address       string `db:"address"        json:"address" validate:"required"`
	AddressDetail string `db:"address_detail" json:"address_detail,omitempty"`
	Region        string `db:"region"         json:"region,omitempty"`
	District      string `db:"district"       json:"district,omitempty"`

	LandArea        float64 `db:"land_area"         json:"land_area,omitempty"`
	BuildingArea    float64 `db:"building_area"     json:"building_area,omitempty"`
	LandAreaSqm     float64 `db:"land_area_sqm"     json:"land_area_sqm,omitempty"`
	BuildingAreaSqm float64 `db:"building_area_sqm" json:"building_area_sqm,omitempty"`
	Floor           string  `db:"floor"             json:"floor,omitempty"`
	BuildYear       int     `db:"build_year"        json:"build_year,omitempty"`
	Structure       string  `db:"structure"         json:"structure,omitempty"`

	AppraisalValue    int64   `db:"appraisal_value"     json:"appraisal_value" validate:"required,gt=0"`
	MinimumBid        int64   `db:"minimum_bid"         json:"minimum_bid"     validate:"required,gt=0"`
	MinimumBidPercent float64 `db:"minimum_bid_percent" json:"minimum_bid_percent,omitempty"`
	AuctionDate       string  `db:"auction_date"        json:"auction_date"    validate:"required,datetime=2006-01-02"`
	AuctionRound      int     `db:"auction_round"       json:"auction_round,omitempty"`
	BidDepositPercent float64 `db:"bid_deposit_percent" json:"bid_deposit_percent,omitempty"`

	RiskLevel    string       `db:"risk_level"    json:"risk_level,omitempty" validate:"omitempty,oneof=safe caution danger"`
	HasOccupant  bool         `db:"has_occupant"  json:"has_occupant"`
	HasLease     bool         `db:"has_lease"     json:"has_lease"`
	LeaseDeposit int64        `db:"lease_deposit" json:"lease_deposit,omitempty"`
	MonthlyRent  int64        `db:"monthly_rent"  json:"monthly_rent,omitempty"`
	RightsIssues []RightIssue `db:"-"             json:"rights_issues,omitempty"`

	Zoning     string `db:"zoning"      json:"zoning,omitempty"`
	RoadAccess string `db:"road_access" json:"road_access,omitempty"`

	ImageURLs []string `db:"image_urls" json:"image_urls,omitempty"`
}
