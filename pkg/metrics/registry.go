// Package metrics holds the process metrics registry. Batch runs have no
// scrape endpoint, so the registry is exported in the node-exporter textfile
// format at the end of a command.
package metrics

import (
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Registry struct {
	reg *prometheus.Registry
}

func NewRegistry() *Registry {
	return &Registry{reg: prometheus.NewRegistry()}
}

// Factory returns a promauto factory that registers into r.
func (r *Registry) Factory() promauto.Factory {
	return promauto.With(r.reg)
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile writes every registered metric to path. An empty path is a no-op.
func (r *Registry) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
