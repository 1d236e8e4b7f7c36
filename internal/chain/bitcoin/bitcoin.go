package bitcoin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

const defaultMaxRetries = 3

// Adapter reads balances from an Esplora compatible REST API (Blockstream, mempool.space).
type Adapter struct {
	baseURL    string
	client     *http.Client
	logger     *logger.Logger
	maxRetries int
	backoff    time.Duration
}

func New(baseURL string, logger *logger.Logger) *Adapter {
	return &Adapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{},
		logger:     logger,
		maxRetries: defaultMaxRetries,
		backoff:    time.Second,
	}
}

// WithBackoff overrides the linear retry backoff step.
func (a *Adapter) WithBackoff(step time.Duration) *Adapter {
	a.backoff = step
	return a
}

func (a *Adapter) ChainType() model.ChainType {
	return model.ChainTypeBitcoin
}

// NativeBalance counts confirmed outputs only, mempool funds are not a deposit yet.
func (a *Adapter) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	url := fmt.Sprintf("%s/address/%s", a.baseURL, address)
	var lastErr error

	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		if attempt > 1 {
			if err := a.sleep(ctx, attempt-1); err != nil {
				return nil, errs.Wrap(errs.KindAdapterUnavailable, "NativeBalance", err)
			}
		}

		body, status, err := a.get(ctx, url)
		if err != nil {
			lastErr = errors.Wrap(err, "failed to fetch BTC balance")
			a.logger.Error("[NativeBalance][client.Do]", map[string]string{
				"error":   lastErr.Error(),
				"attempt": strconv.Itoa(attempt),
			})
			continue
		}

		if status == http.StatusBadRequest {
			return nil, errs.Newf(errs.KindValidation, "NativeBalance", "invalid bitcoin address %q", address)
		}
		if status != http.StatusOK {
			lastErr = errors.Errorf("unexpected status code: %d", status)
			a.logger.Error("[NativeBalance][client.Do]", map[string]string{
				"error":      lastErr.Error(),
				"statusCode": strconv.Itoa(status),
				"attempt":    strconv.Itoa(attempt),
			})
			continue
		}

		var response GetAddressResponse
		if err := json.Unmarshal(body, &response); err != nil {
			lastErr = errors.Wrap(err, "failed to parse JSON response")
			a.logger.Error("[NativeBalance][json.Unmarshal]", map[string]string{
				"error":   lastErr.Error(),
				"attempt": strconv.Itoa(attempt),
			})
			continue
		}

		sats := response.ChainStats.FundedTxoSum - response.ChainStats.SpentTxoSum
		return big.NewInt(sats), nil
	}

	return nil, errs.Wrap(errs.KindAdapterUnavailable, "NativeBalance", lastErr)
}

// TokenBalance always fails, bitcoin has no token contracts.
func (a *Adapter) TokenBalance(_ context.Context, token, _ string) (*big.Int, error) {
	return nil, errs.Newf(errs.KindUnsupportedToken, "TokenBalance", "bitcoin has no token %q", token)
}

func (a *Adapter) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to read response body")
	}
	return body, resp.StatusCode, nil
}

func (a *Adapter) sleep(ctx context.Context, step int) error {
	t := time.NewTimer(time.Duration(step) * a.backoff)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (a *Adapter) Ping(ctx context.Context) error {
	_, status, err := a.get(ctx, a.baseURL+"/blocks/tip/height")
	if err != nil {
		return errs.Wrap(errs.KindAdapterUnavailable, "Ping", err)
	}
	if status != http.StatusOK {
		return errs.Newf(errs.KindAdapterUnavailable, "Ping", "unexpected status code: %d", status)
	}
	return nil
}
