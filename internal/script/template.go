package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/greg-kim/auctionreel/pkg/models"
)

// TemplateGenerator composes narration from fixed Korean templates. It is
// fully deterministic: the same listing always yields the same script. Used
// in mock mode and as the fallback when no Anthropic key is configured.
type TemplateGenerator struct {
	channelName string
}

func NewTemplateGenerator(channelName string) *TemplateGenerator {
	return &TemplateGenerator{channelName: channelName}
}

func (g *TemplateGenerator) Name() string { return "template" }

func (g *TemplateGenerator) ListingScript(_ context.Context, l *models.Listing) ([]Section, error) {
	return []Section{
		{Name: models.SectionIntro, Text: g.intro(l)},
		{Name: models.SectionCaseOverview, Text: caseOverview(l)},
		{Name: models.SectionPriceInfo, Text: priceInfo(l)},
		{Name: models.SectionLocation, Text: locationAnalysis(l)},
		{Name: models.SectionDetails, Text: propertyDetails(l)},
		{Name: models.SectionLegalNotes, Text: legalNotes(l)},
		{Name: models.SectionClosing, Text: g.closing()},
	}, nil
}

func (g *TemplateGenerator) PageScript(_ context.Context, _ string, page, total int) (string, error) {
	switch {
	case page == 1:
		return fmt.Sprintf("안녕하세요. %s입니다. 지금부터 감정평가서를 한 페이지씩 살펴보겠습니다.", g.channelName), nil
	case page == total:
		return fmt.Sprintf("%d페이지, 마지막 페이지입니다. 감정평가서 검토를 마칩니다. 입찰 전 반드시 원본 서류를 직접 확인하시기 바랍니다.", page), nil
	default:
		return fmt.Sprintf("%d페이지입니다. 화면의 평가 내용을 확인해 주세요.", page), nil
	}
}

func (g *TemplateGenerator) intro(l *models.Listing) string {
	return fmt.Sprintf("안녕하세요. %s입니다. 오늘 소개해 드릴 물건은 %s %s 경매 물건입니다.",
		g.channelName, regionOf(l), assetTypeName(l))
}

func caseOverview(l *models.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s 사건입니다. 소재지는 %s입니다.", l.Court, l.CaseNumber, fullAddress(l))
	if area := areaText(l); area != "" {
		fmt.Fprintf(&b, " 면적은 %s입니다.", area)
	}
	return b.String()
}

func priceInfo(l *models.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "감정가는 %s이며, %s 진행되는 매각기일의 최저매각가격은 ",
		FormatWonSimple(l.AppraisalValue), FormatDateKorean(l.AuctionDate))
	if l.MinimumBidPercent > 0 {
		fmt.Fprintf(&b, "감정가의 %s인 ", FormatPercent(l.MinimumBidPercent))
	}
	fmt.Fprintf(&b, "%s입니다.", FormatWonSimple(l.MinimumBid))
	if l.AuctionRound > 1 {
		fmt.Fprintf(&b, " 이번이 %d회차 매각입니다.", l.AuctionRound)
	}
	return b.String()
}

func locationAnalysis(l *models.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s에 위치한 물건입니다.", regionOf(l))
	if l.Zoning != "" {
		fmt.Fprintf(&b, " 용도지역은 %s입니다.", l.Zoning)
	}
	if l.RoadAccess != "" {
		fmt.Fprintf(&b, " 도로 접면은 %s입니다.", l.RoadAccess)
	}
	return b.String()
}

func propertyDetails(l *models.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "물건의 상세 내용을 살펴보겠습니다.")
	if l.Structure != "" {
		fmt.Fprintf(&b, " 건물 구조는 %s입니다.", l.Structure)
	}
	if l.Floor != "" {
		fmt.Fprintf(&b, " 해당 층수는 %s입니다.", l.Floor)
	}
	if l.BuildYear > 0 {
		fmt.Fprintf(&b, " %d년에 지어진 건물입니다.", l.BuildYear)
	}
	return b.String()
}

func legalNotes(l *models.Listing) string {
	var b strings.Builder
	b.WriteString(reauctionText(l))
	if l.BidDepositPercent > 0 {
		deposit := int64(float64(l.MinimumBid) * l.BidDepositPercent)
		fmt.Fprintf(&b, " 입찰보증금은 최저매각가격의 %s인 %s입니다.",
			FormatPercent(l.BidDepositPercent), FormatWonSimple(deposit))
	}
	fmt.Fprintf(&b, " 점유자는 %s, 임차인은 %s으로 조사되었습니다.",
		presence(l.HasOccupant), presence(l.HasLease))
	if l.HasLease && l.LeaseDeposit > 0 {
		fmt.Fprintf(&b, " 임차보증금은 %s", FormatWonSimple(l.LeaseDeposit))
		if l.MonthlyRent > 0 {
			fmt.Fprintf(&b, ", 월세는 %s", FormatWonSimple(l.MonthlyRent))
		}
		b.WriteString("입니다.")
	}
	if rights := rightsText(l.RightsIssues); rights != "" {
		fmt.Fprintf(&b, " 등기상 권리관계로는 %s이 확인됩니다.", rights)
	}
	return b.String()
}

func (g *TemplateGenerator) closing() string {
	return fmt.Sprintf("지금까지 %s였습니다. 본 영상은 참고용이며, 입찰 전 반드시 현장 확인과 권리분석을 직접 진행하시기 바랍니다. 감사합니다.", g.channelName)
}

func reauctionText(l *models.Listing) string {
	if l.AuctionRound > 1 {
		return "유찰 후 재매각되는 물건입니다."
	}
	return "신건으로 진행되는 물건입니다."
}

func presence(has bool) string {
	if has {
		return "있음"
	}
	return "없음"
}

func rightsText(issues []models.RightIssue) string {
	if len(issues) == 0 {
		return ""
	}
	names := make([]string, 0, len(issues))
	for _, ri := range issues {
		name := ri.TypeName
		if name == "" {
			name = ri.Type
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func fullAddress(l *models.Listing) string {
	if l.AddressDetail != "" {
		return l.Address + " " + l.AddressDetail
	}
	return l.Address
}

func regionOf(l *models.Listing) string {
	switch {
	case l.Region != "" && l.District != "":
		return l.Region + " " + l.District
	case l.Region != "":
		return l.Region
	default:
		return l.Address
	}
}

var assetTypeNames = map[string]string{
	models.AssetTypeApartment:  "아파트",
	models.AssetTypeLand:       "토지",
	models.AssetTypeCommercial: "상가",
	models.AssetTypeHouse:      "주택",
	models.AssetTypeOffice:     "오피스텔",
	models.AssetTypeFactory:    "공장",
	models.AssetTypeOther:      "부동산",
}

func assetTypeName(l *models.Listing) string {
	if l.AssetTypeName != "" {
		return l.AssetTypeName
	}
	if name, ok := assetTypeNames[l.AssetType]; ok {
		return name
	}
	return "부동산"
}

// areaText prefers the pyeong figures from the case record and falls back
// to square meters when only those are present.
func areaText(l *models.Listing) string {
	var parts []string
	if s := preferredArea(l.LandArea, l.LandAreaSqm); s != "" {
		parts = append(parts, "토지 "+s)
	}
	if s := preferredArea(l.BuildingArea, l.BuildingAreaSqm); s != "" {
		parts = append(parts, "건물 "+s)
	}
	return strings.Join(parts, ", ")
}

func preferredArea(pyeong, sqm float64) string {
	if pyeong > 0 {
		return FormatAreaPyeong(pyeong)
	}
	return FormatArea(sqm)
}
