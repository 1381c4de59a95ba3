package scoring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/robalyx/vigil/pkg/utils"
	"go.uber.org/zap"
)

// DefaultEndpoint is the comment analysis endpoint used when the operator
// configures none.
const DefaultEndpoint = "https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze"

var (
	// ErrScoringUnavailable wraps every failure to obtain a usable score set.
	// Callers treat it as "skip screening for this message", never as a flag.
	ErrScoringUnavailable = errors.New("scoring service unavailable")

	errUnexpectedStatusCode = errors.New("unexpected status code")
	errMalformedResponse    = errors.New("malformed oracle response")
)

// Client calls the external text-classification oracle.
type Client interface {
	// Score returns the oracle's category scores for the given text.
	// Failures wrap ErrScoringUnavailable.
	Score(ctx context.Context, text string) (ScoreSet, error)
}

// PerspectiveClient scores text through a Perspective-style comment analysis
// HTTP API.
type PerspectiveClient struct {
	httpClient *http.Client
	endpoint   string
	key        string
	logger     *zap.Logger
}

// NewPerspectiveClient creates a scoring client for the given endpoint and
// API key. An empty endpoint selects DefaultEndpoint.
func NewPerspectiveClient(endpoint, key string, logger *zap.Logger) *PerspectiveClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &PerspectiveClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		key:        key,
		logger:     logger.Named("scoring"),
	}
}

// analyzeRequest is the oracle's request schema.
type analyzeRequest struct {
	Comment             analyzeComment        `json:"comment"`
	Languages           []string              `json:"languages"`
	RequestedAttributes map[Category]struct{} `json:"requestedAttributes"`
	DoNotStore          bool                  `json:"doNotStore"`
}

type analyzeComment struct {
	Text string `json:"text"`
}

// analyzeResponse is the oracle's response schema.
type analyzeResponse struct {
	AttributeScores map[Category]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

// Score requests scores for every category in RequestedCategories with
// retries. All failures, including a malformed response body, are reported
// as ErrScoringUnavailable so the pipeline can fail open.
func (c *PerspectiveClient) Score(ctx context.Context, text string) (ScoreSet, error) {
	scores, err := utils.WithRetry(ctx, func() (ScoreSet, error) {
		scores, reqErr := c.executeRequest(ctx, text)

		// A response that parsed but is missing the score section will not
		// improve on retry.
		if errors.Is(reqErr, errMalformedResponse) {
			return nil, backoff.Permanent(reqErr)
		}

		return scores, reqErr
	}, utils.GetScoringRetryOptions())
	if err != nil {
		c.logger.Warn("Failed to score message", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrScoringUnavailable, err)
	}

	return scores, nil
}

// executeRequest performs a single analysis call.
func (c *PerspectiveClient) executeRequest(ctx context.Context, text string) (ScoreSet, error) {
	requested := make(map[Category]struct{}, len(RequestedCategories()))
	for _, category := range RequestedCategories() {
		requested[category] = struct{}{}
	}

	body := analyzeRequest{
		Comment:             analyzeComment{Text: text},
		Languages:           []string{"en"},
		RequestedAttributes: requested,
		DoNotStore:          true,
	}

	jsonBody, err := sonic.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	// Create request with the API key as a query parameter
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint+"?key="+url.QueryEscape(c.key), bytes.NewBuffer(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	// Execute request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing request: %w", err)
	}
	defer resp.Body.Close()

	// Check response
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %d: %s", errUnexpectedStatusCode, resp.StatusCode, string(respBody))
	}

	// Parse response
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var analyzed analyzeResponse
	if err := sonic.Unmarshal(respBody, &analyzed); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedResponse, err)
	}

	if analyzed.AttributeScores == nil {
		return nil, fmt.Errorf("%w: missing attribute scores", errMalformedResponse)
	}

	scores := make(ScoreSet, len(analyzed.AttributeScores))
	for category, attr := range analyzed.AttributeScores {
		scores[category] = attr.SummaryScore.Value
	}

	return scores, nil
}
