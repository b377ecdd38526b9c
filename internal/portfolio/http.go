package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"wealth-planner/internal/domain"
)

// ErrUnavailable is returned while the remote portfolio service is failing
// and the breaker is open.
var ErrUnavailable = errors.New("portfolio service unavailable")

// allocationResponse is the remote service's payload.
type allocationResponse struct {
	GoalID            string  `json:"goal_id"`
	CurrentAllocation float64 `json:"current_allocation"`
}

// HTTPProvider fetches allocations from a remote portfolio service:
//
//	GET {baseURL}/goals/{goalID}/allocation -> {"goal_id": "...", "current_allocation": 123.45}
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// HTTPProviderOptions configures an HTTPProvider.
type HTTPProviderOptions struct {
	BaseURL string
	Timeout time.Duration // per request, default 5s
	Breaker BreakerConfig
	Client  *http.Client // optional; overrides Timeout
	Logger  *zap.Logger
}

// NewHTTPProvider creates an HTTPProvider.
func NewHTTPProvider(opts HTTPProviderOptions) (*HTTPProvider, error) {
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid portfolio base url: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	// A missing goal is an answer, not a service failure.
	isSuccessful := func(err error) bool {
		return err == nil || errors.Is(err, domain.ErrNotFound)
	}

	return &HTTPProvider{
		baseURL: opts.BaseURL,
		client:  client,
		breaker: newBreaker("portfolio", opts.Breaker, isSuccessful, logger),
		logger:  logger,
	}, nil
}

// CurrentAllocation fetches the goal's allocation through the circuit breaker.
func (p *HTTPProvider) CurrentAllocation(ctx context.Context, goalID string) (float64, error) {
	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, goalID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return 0, err
	}
	return res.(float64), nil
}

func (p *HTTPProvider) fetch(ctx context.Context, goalID string) (float64, error) {
	endpoint, err := url.JoinPath(p.baseURL, "goals", goalID, "allocation")
	if err != nil {
		return 0, fmt.Errorf("build portfolio url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build portfolio request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("portfolio request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, &domain.NotFoundError{Kind: "goal", ID: goalID}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		p.logger.Warn("portfolio service error",
			zap.String("goal_id", goalID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return 0, fmt.Errorf("portfolio service returned %d", resp.StatusCode)
	}

	var payload allocationResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode portfolio response: %w", err)
	}
	if err := domain.ValidateNonNegative("current_allocation", payload.CurrentAllocation); err != nil {
		return 0, err
	}

	return payload.CurrentAllocation, nil
}

var _ Provider = (*HTTPProvider)(nil)
