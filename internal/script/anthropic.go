package script

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/greg-kim/auctionreel/internal/config"
	"github.com/greg-kim/auctionreel/pkg/models"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	maxScriptTokens  = 2048
)

// AnthropicGenerator produces narration through the Anthropic messages API.
// Listing scripts are requested as a JSON object keyed by section name so
// the response can be validated against the fixed section order.
type AnthropicGenerator struct {
	apiKey      string
	model       string
	channelName string
	httpClient  *http.Client
}

func NewAnthropicGenerator(cfg config.ScriptConfig, channelName string) *AnthropicGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnthropicGenerator{
		apiKey:      cfg.AnthropicAPIKey,
		model:       cfg.AnthropicModel,
		channelName: channelName,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (g *AnthropicGenerator) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *AnthropicGenerator) ListingScript(ctx context.Context, l *models.Listing) ([]Section, error) {
	facts, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal listing: %w", err)
	}

	system := fmt.Sprintf("당신은 유튜브 채널 %s의 부동산 경매 내레이터입니다. "+
		"제공된 경매 물건 정보로 각 섹션의 한국어 내레이션을 작성하세요. "+
		"금액은 억/만원 단위로 읽기 쉽게 표현하고, 법률 자문처럼 들리는 단정적 표현은 피하세요. "+
		"반드시 다음 키를 가진 JSON 객체만 출력하세요: %s",
		g.channelName, strings.Join(models.SectionOrder, ", "))

	text, err := g.complete(ctx, system, []contentBlock{
		{Type: "text", Text: "경매 물건 정보:\n" + string(facts)},
	})
	if err != nil {
		return nil, err
	}

	sections, err := parseSectionJSON(text)
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func (g *AnthropicGenerator) PageScript(ctx context.Context, imagePath string, page, total int) (string, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read page image: %w", err)
	}

	system := fmt.Sprintf("당신은 유튜브 채널 %s의 부동산 감정평가서 해설가입니다. "+
		"화면에 보이는 페이지의 핵심 내용을 2~4문장의 한국어 내레이션으로 설명하세요. "+
		"내레이션 본문만 출력하세요.", g.channelName)

	prompt := fmt.Sprintf("감정평가서 전체 %d페이지 중 %d페이지입니다. 이 페이지를 설명해 주세요.", total, page)
	text, err := g.complete(ctx, system, []contentBlock{
		{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: "image/jpeg",
				Data:      base64.StdEncoding.EncodeToString(raw),
			},
		},
		{Type: "text", Text: prompt},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrInvalidResponse
	}
	return strings.TrimSpace(text), nil
}

// complete sends one user message and returns the concatenated text blocks
// of the reply.
func (g *AnthropicGenerator) complete(ctx context.Context, system string, content []contentBlock) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     g.model,
		MaxTokens: maxScriptTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: content}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicBaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", g.apiKey)
	req.Header.Set("Anthropic-Version", anthropicVersion)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
		}
		return "", fmt.Errorf("script provider error: status %d: %s", resp.StatusCode, tailOf(raw, 200))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("script provider error: %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

// parseSectionJSON validates the model reply against the fixed section
// order. The reply may wrap the JSON object in a markdown fence.
func parseSectionJSON(text string) ([]Section, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrInvalidResponse)
	}

	var byName map[string]string
	if err := json.Unmarshal([]byte(text[start:end+1]), &byName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	sections := make([]Section, 0, len(models.SectionOrder))
	for _, name := range models.SectionOrder {
		body := strings.TrimSpace(byName[name])
		if body == "" {
			return nil, fmt.Errorf("%w: section %q missing or empty", ErrInvalidResponse, name)
		}
		sections = append(sections, Section{Name: name, Text: body})
	}
	return sections, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

func tailOf(raw []byte, max int) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}
