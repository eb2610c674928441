// Package runtime assembles the preview service from its configuration:
// logger, handler registry, extraction pipelines, backend client, metrics,
// and the dispatcher.
package runtime

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/backend"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/config"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/extract"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers/excel"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers/htmldoc"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers/image"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers/pdfdoc"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers/powerpoint"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers/text"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers/word"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/logger"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/observability"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

// Runtime holds the assembled service components.
type Runtime struct {
	Config         *config.Config
	Registry       *preview.HandlerRegistry
	Dispatcher     *preview.Dispatcher
	Metrics        *observability.PrometheusMetrics
	MetricsHandler http.Handler
}

// New builds a Runtime from a validated configuration.
func New(cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	log := logger.GetLogger()

	metrics, metricsHandler, err := observability.InitMetrics()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	registry := preview.NewHandlerRegistry(cfg.Dispatch.HealthFailureThreshold)

	minUsable := cfg.Dispatch.MinUsableContent
	documentHandlers := []*handlers.Base{
		word.NewHandler(minUsable),
		excel.NewHandler(minUsable),
		pdfdoc.NewHandler(minUsable),
		powerpoint.NewHandler(minUsable),
		htmldoc.NewHandler(minUsable),
		text.NewHandler(minUsable),
	}

	if cfg.Backend.URL != "" {
		client := backend.New(cfg.Backend.URL,
			backend.WithMaxRetries(cfg.Backend.MaxRetries),
			backend.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout.AsDuration()}),
		)
		attachRemote(client, documentHandlers)
		log.Info("server-side processing enabled", "url", cfg.Backend.URL)
	}

	for _, h := range documentHandlers {
		if err := registry.Register(h); err != nil {
			return nil, fmt.Errorf("register handler %s: %w", h.Info().Name, err)
		}
	}
	if err := registry.Register(image.NewHandler()); err != nil {
		return nil, fmt.Errorf("register handler image: %w", err)
	}

	dispatcher := preview.NewDispatcher(registry,
		preview.WithTimeout(cfg.Dispatch.Timeout.AsDuration()),
		preview.WithSoftSizeLimit(int(cfg.Dispatch.SoftSizeLimit)),
		preview.WithMetrics(metrics),
	)

	log.Info("preview runtime assembled",
		"handlers", registry.Count(),
		"names", strings.Join(registry.Names(), ","),
		"timeout", cfg.Dispatch.Timeout.AsDuration().String(),
		"failure_threshold", cfg.Dispatch.HealthFailureThreshold,
	)

	return &Runtime{
		Config:         cfg,
		Registry:       registry,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
	}, nil
}

// remoteEligible names the handlers whose pipelines get the backend upload
// step: binary office formats and PDF, where the server-side converter can
// do better than a byte scrape. Text-like formats never need it.
var remoteEligible = map[string]bool{
	"word":       true,
	"excel":      true,
	"powerpoint": true,
	"pdf":        true,
}

// attachRemote inserts the backend upload strategy ahead of each eligible
// handler's raw scrape, so the server gets a chance before the last-resort
// output.
func attachRemote(client *backend.Client, documentHandlers []*handlers.Base) {
	for _, h := range documentHandlers {
		info := h.Info()
		if !remoteEligible[info.Name] || len(info.MimeTypes) == 0 {
			continue
		}
		remote := backend.NewRemoteStrategy(client, info.MimeTypes[0])
		h.Pipeline().InsertBefore(extract.MethodRaw, remote)
	}
}
