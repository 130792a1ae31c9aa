// Package f1fx provides an fx module for the cached F1 API client.
package f1fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/apexanalytics/gridcache"
	"github.com/apexanalytics/gridcache/f1"
)

// Module provides an *f1.Client backed by the application's cache.
// Requires a *gridcache.Cache and a *zap.Logger to be provided
// (gridcachefx.Module supplies the former).
var Module = fx.Module("f1",
	fx.Provide(newClient),
)

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Cache  *gridcache.Cache
	Logger *zap.Logger
}

// Result holds the provided client.
type Result struct {
	fx.Out

	Client *f1.Client
}

func newClient(p Params) (Result, error) {
	client, err := f1.NewClient(p.Cache,
		f1.WithLogger(p.Logger.Named("f1")),
	)
	if err != nil {
		return Result{}, err
	}
	return Result{Client: client}, nil
}
