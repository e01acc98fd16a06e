package listing

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/greg-kim/auctionreel/pkg/models"
)

// MockSource serves embedded sample listings and generates placeholder scene
// images, so jobs run deterministically with no network or database access.
type MockSource struct {
	listings []*models.Listing
}

func NewMockSource() *MockSource {
	return &MockSource{listings: sampleListings()}
}

func (s *MockSource) Name() string { return "mock" }

func (s *MockSource) GetListing(_ context.Context, caseNumber string) (*models.Listing, error) {
	for _, l := range s.listings {
		if l.CaseNumber == caseNumber {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MockSource) SearchListings(_ context.Context, limit int) ([]*models.Listing, error) {
	out := make([]*models.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

// FetchImages writes one placeholder PNG per declared image URL. Colors vary
// by index so pan/zoom motion is visible in test renders.
func (s *MockSource) FetchImages(ctx context.Context, l *models.Listing, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	count := len(l.ImageURLs)
	if count == 0 {
		count = 3
	}

	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_image_%d.png", SafeCaseNumber(l.CaseNumber), i))
		if err := writePlaceholderImage(path, i); err != nil {
			return nil, fmt.Errorf("write placeholder image: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writePlaceholderImage renders a flat-shaded frame with an index-dependent
// hue. 640x360 keeps encoder input small; ffmpeg scales up.
func writePlaceholderImage(path string, index int) error {
	const w, h = 640, 360
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	base := color.RGBA{
		R: uint8(60 + (index*67)%160),
		G: uint8(80 + (index*41)%140),
		B: uint8(100 + (index*29)%120),
		A: 255,
	}
	border := color.RGBA{R: 230, G: 230, B: 230, A: 255}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < 8 || x >= w-8 || y < 8 || y >= h-8 {
				img.SetRGBA(x, y, border)
			} else {
				img.SetRGBA(x, y, base)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func sampleListings() []*models.Listing {
	return []*models.Listing{
		{
			CaseNumber:        "2024타경12345",
			Court:             "수원지방법원",
			AssetType:         models.AssetTypeHouse,
			AssetTypeName:     "단독주택",
			Address:           "경기도 수원시 장안구 정자동 123-45",
			Region:            "경기도",
			District:          "수원시 장안구",
			LandArea:          85.5,
			BuildingArea:      42.3,
			Floor:             "지상 2층",
			BuildYear:         1998,
			Structure:         "철근콘크리트조",
			AppraisalValue:    850_000_000,
			MinimumBid:        544_000_000,
			MinimumBidPercent: 0.64,
			AuctionDate:       "2025-10-15",
			AuctionRound:      2,
			BidDepositPercent: 0.1,
			RiskLevel:         models.RiskCaution,
			HasOccupant:       true,
			HasLease:          true,
			LeaseDeposit:      50_000_000,
			MonthlyRent:       500_000,
			Zoning:            "제1종일반주거지역",
			RoadAccess:        "노폭 6m 도로",
			ImageURLs:         []string{"mock://front", "mock://side", "mock://map"},
		},
		{
			CaseNumber:        "2024타경67890",
			Court:             "서울중앙지방법원",
			AssetType:         models.AssetTypeApartment,
			AssetTypeName:     "아파트",
			Address:           "서울특별시 동작구 사당동 현대아파트 101동 502호",
			Region:            "서울특별시",
			District:          "동작구",
			BuildingArea:      25.7,
			Floor:             "5층",
			BuildYear:         2005,
			AppraisalValue:    1_200_000_000,
			MinimumBid:        960_000_000,
			MinimumBidPercent: 0.8,
			AuctionDate:       "2025-11-03",
			AuctionRound:      1,
			BidDepositPercent: 0.1,
			RiskLevel:         models.RiskSafe,
			ImageURLs:         []string{"mock://exterior", "mock://interior"},
		},
		{
			CaseNumber:        "2025타경00777",
			Court:             "대전지방법원",
			AssetType:         models.AssetTypeLand,
			AssetTypeName:     "전",
			Address:           "충청남도 논산시 연무읍 죽평리 산 77",
			Region:            "충청남도",
			LandArea:          412.0,
			AppraisalValue:    180_000_000,
			MinimumBid:        88_200_000,
			MinimumBidPercent: 0.49,
			AuctionDate:       "2025-09-24",
			AuctionRound:      3,
			BidDepositPercent: 0.2,
			RiskLevel:         models.RiskDanger,
			Zoning:            "계획관리지역",
			ImageURLs:         []string{"mock://aerial"},
		},
	}
}

var _ Source = (*MockSource)(nil)
