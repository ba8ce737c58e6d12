package ledger

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"gatelock/oracle"
	"gatelock/storage"
)

// DialConfig describes a GateLock deployment on a running dev node.
type DialConfig struct {
	RPCURL      string
	Contract    common.Address
	AdminMethod string
	Layout      Layout
	// RateLimit caps requests per second; zero disables throttling.
	RateLimit float64
	RateBurst int
	// RequestTimeout bounds each JSON-RPC round trip when HTTPClient is nil.
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

// Dial connects to the node at cfg.RPCURL and binds the contract. It fails
// when no code is deployed at the configured address.
func Dial(ctx context.Context, cfg DialConfig) (Deployment, error) {
	endpoint := strings.TrimSpace(cfg.RPCURL)
	if endpoint == "" {
		return Deployment{}, fmt.Errorf("rpc endpoint required")
	}
	if (cfg.Contract == common.Address{}) {
		return Deployment{}, fmt.Errorf("contract address required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	client, err := rpc.DialOptions(ctx, endpoint, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return Deployment{}, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	opts := []storage.RPCOption{storage.WithAdminMethod(cfg.AdminMethod)}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, storage.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)))
	}
	backend := storage.NewRPCBackend(client, opts...)

	code, err := backend.Eth().CodeAt(ctx, cfg.Contract, nil)
	if err != nil {
		backend.Close()
		return Deployment{}, fmt.Errorf("fetch code at %s: %w", cfg.Contract.Hex(), err)
	}
	if len(code) == 0 {
		backend.Close()
		return Deployment{}, fmt.Errorf("no contract deployed at %s", cfg.Contract.Hex())
	}

	contract, err := oracle.NewContract(cfg.Contract, backend.Eth())
	if err != nil {
		backend.Close()
		return Deployment{}, err
	}
	return Deployment{
		Address: cfg.Contract,
		Backend: backend,
		Oracle:  contract,
		Layout:  cfg.Layout.withDefaults(),
	}, nil
}
