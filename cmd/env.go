package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sojunghan/territory-cli/internal/config"
	"github.com/sojunghan/territory-cli/internal/registry"
	"github.com/sojunghan/territory-cli/internal/resilience"
	"github.com/sojunghan/territory-cli/internal/store"
	"github.com/sojunghan/territory-cli/internal/territory"
	"github.com/sojunghan/territory-cli/pkg/geocode"
)

// territoryEnv holds the store, registry and service shared by the commands.
type territoryEnv struct {
	Store    store.ClaimStore
	Registry *registry.Registry
	Geocoder *geocode.CascadeClient
	Service  *territory.Service
}

// Close releases resources held by the environment.
func (e *territoryEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv opens the configured store, loads the registry and builds the
// geocoder cascade. Callers should defer env.Close().
func initEnv(ctx context.Context, c *config.Config, mode string) (*territoryEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, c.Store.Options())
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	reg := registry.New(st, c.Claims.Radii())
	if err := reg.Load(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load claims")
	}

	gc := buildGeocoder(c.Geocode)
	zap.L().Debug("environment ready",
		zap.String("driver", c.Store.Driver),
		zap.Int("claims", reg.Len()),
		zap.Strings("providers", gc.Providers()),
	)

	return &territoryEnv{
		Store:    st,
		Registry: reg,
		Geocoder: gc,
		Service:  territory.New(gc, reg),
	}, nil
}

// buildGeocoder assembles the providers in configured order. Unknown names
// are rejected by config validation.
func buildGeocoder(gcfg config.GeocodeConfig) *geocode.CascadeClient {
	retry := resilience.DefaultRetryConfig().WithAttempts(gcfg.RetryAttempts)

	var providers []geocode.Provider
	for _, name := range gcfg.Providers {
		switch name {
		case "kakao":
			providers = append(providers, geocode.NewKakaoProvider(gcfg.KakaoKey,
				geocode.WithRetry(retry)))
		case "nominatim":
			providers = append(providers, geocode.NewNominatimProvider(gcfg.NominatimURL, gcfg.UserAgent,
				geocode.WithRateLimit(gcfg.RatePerSec), geocode.WithRetry(retry)))
		}
	}

	return geocode.NewCascadeClient(providers,
		geocode.WithCacheTTL(gcfg.CacheTTL()),
		geocode.WithBatchConcurrency(gcfg.BatchConcurrency),
	)
}
