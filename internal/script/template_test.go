package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greg-kim/auctionreel/pkg/models"
)

func sampleListing() *models.Listing {
	return &models.Listing{
		CaseNumber:        "2024타경12345",
		Court:             "수원지방법원",
		AssetType:         models.AssetTypeHouse,
		Address:           "경기도 수원시 팔달구 매산로 123",
		Region:            "경기도 수원시",
		District:          "팔달구",
		BuildingAreaSqm:   84.92,
		LandAreaSqm:       120.5,
		Structure:         "철근콘크리트조",
		Floor:             "2층",
		BuildYear:         1998,
		AppraisalValue:    850_000_000,
		MinimumBid:        544_000_000,
		MinimumBidPercent: 0.64,
		AuctionDate:       "2025-03-14",
		AuctionRound:      2,
		BidDepositPercent: 0.1,
		HasOccupant:       true,
		HasLease:          true,
		LeaseDeposit:      50_000_000,
		MonthlyRent:       500_000,
		Zoning:            "제2종일반주거지역",
		RoadAccess:        "8미터 포장도로 접함",
		RightsIssues: []models.RightIssue{
			{Type: "mortgage", TypeName: "근저당권", RiskLevel: models.RiskSafe},
		},
	}
}

func TestTemplateListingScript(t *testing.T) {
	gen := NewTemplateGenerator("경매TV")
	sections, err := gen.ListingScript(context.Background(), sampleListing())
	require.NoError(t, err)
	require.Len(t, sections, len(models.SectionOrder))

	for i, s := range sections {
		assert.Equal(t, models.SectionOrder[i], s.Name)
		assert.NotEmpty(t, s.Text, "section %s", s.Name)
	}

	assert.Contains(t, sections[0].Text, "경매TV")
	assert.Contains(t, sections[1].Text, "2024타경12345")
	assert.Contains(t, sections[1].Text, "수원지방법원")
	assert.Contains(t, sections[2].Text, "8억 5천만원")
	assert.Contains(t, sections[2].Text, "5억 4천4백만원")
	assert.Contains(t, sections[2].Text, "2025년 3월 14일")
	assert.Contains(t, sections[2].Text, "64%")
	assert.Contains(t, sections[3].Text, "제2종일반주거지역")
	assert.Contains(t, sections[4].Text, "철근콘크리트조")
	assert.Contains(t, sections[5].Text, "재매각")
	assert.Contains(t, sections[5].Text, "근저당권")
	assert.Contains(t, sections[6].Text, "경매TV")
}

func TestTemplateListingScriptDeterministic(t *testing.T) {
	gen := NewTemplateGenerator("경매TV")
	a, err := gen.ListingScript(context.Background(), sampleListing())
	require.NoError(t, err)
	b, err := gen.ListingScript(context.Background(), sampleListing())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTemplateListingScriptSparse(t *testing.T) {
	gen := NewTemplateGenerator("경매TV")
	sections, err := gen.ListingScript(context.Background(), &models.Listing{
		CaseNumber:     "2025타경00001",
		Court:          "서울중앙지방법원",
		Address:        "서울특별시 중구 세종대로 1",
		AppraisalValue: 100_000_000,
		MinimumBid:     80_000_000,
		AuctionDate:    "2025-06-01",
	})
	require.NoError(t, err)
	require.Len(t, sections, len(models.SectionOrder))
	for _, s := range sections {
		assert.NotEmpty(t, s.Text)
	}
	assert.Contains(t, sections[5].Text, "신건")
}

func TestTemplateListingScriptPyeongAreas(t *testing.T) {
	gen := NewTemplateGenerator("경매TV")

	// Court records often carry pyeong figures only; those take precedence
	// and square meters are the fallback.
	l := sampleListing()
	l.LandAreaSqm = 0
	l.BuildingAreaSqm = 0
	l.LandArea = 85.5
	l.BuildingArea = 42.3

	sections, err := gen.ListingScript(context.Background(), l)
	require.NoError(t, err)
	assert.Contains(t, sections[1].Text, "면적은")
	assert.Contains(t, sections[1].Text, "토지 85.5평")
	assert.Contains(t, sections[1].Text, "건물 42.3평")

	mixed := sampleListing()
	mixed.LandArea = 36.5
	out, err := gen.ListingScript(context.Background(), mixed)
	require.NoError(t, err)
	assert.Contains(t, out[1].Text, "토지 36.5평")
	assert.Contains(t, out[1].Text, "건물 84.92㎡(약 25.7평)")
}

func TestTemplatePageScript(t *testing.T) {
	gen := NewTemplateGenerator("경매TV")

	first, err := gen.PageScript(context.Background(), "p1.jpg", 1, 5)
	require.NoError(t, err)
	assert.Contains(t, first, "경매TV")

	mid, err := gen.PageScript(context.Background(), "p3.jpg", 3, 5)
	require.NoError(t, err)
	assert.Contains(t, mid, "3페이지")

	last, err := gen.PageScript(context.Background(), "p5.jpg", 5, 5)
	require.NoError(t, err)
	assert.Contains(t, last, "마지막")
}

func TestAssetTypeName(t *testing.T) {
	assert.Equal(t, "아파트", assetTypeName(&models.Listing{AssetType: models.AssetTypeApartment}))
	assert.Equal(t, "단독주택", assetTypeName(&models.Listing{AssetType: models.AssetTypeHouse, AssetTypeName: "단독주택"}))
	assert.Equal(t, "부동산", assetTypeName(&models.Listing{AssetType: "UNKNOWN"}))
}
