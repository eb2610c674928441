package preview

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/registry"
)

// DefaultFailureThreshold disables a handler once its failure count exceeds
// this value, unless configured otherwise.
const DefaultFailureThreshold = 3

// HandlerRegistry holds all registered handlers sorted by descending
// priority, tracks per-handler health, and excludes chronically failing
// handlers from selection.
type HandlerRegistry struct {
	*registry.BaseRegistry[Handler]

	mu               sync.RWMutex
	ordered          []Handler
	health           map[string]*HealthRecord
	disabled         map[string]bool
	failureThreshold int64
	logger           *slog.Logger
}

// NewHandlerRegistry creates an empty registry. failureThreshold <= 0 selects
// DefaultFailureThreshold.
func NewHandlerRegistry(failureThreshold int) *HandlerRegistry {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	return &HandlerRegistry{
		BaseRegistry:     registry.NewBaseRegistry[Handler](),
		health:           make(map[string]*HealthRecord),
		disabled:         make(map[string]bool),
		failureThreshold: int64(failureThreshold),
		logger:           slog.Default(),
	}
}

// WithLogger replaces the registry logger.
func (r *HandlerRegistry) WithLogger(logger *slog.Logger) *HandlerRegistry {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Register validates and inserts a handler. Duplicate names are logged and
// ignored; an invalid descriptor returns a ValidationError. Registration
// failure never panics.
func (r *HandlerRegistry) Register(h Handler) error {
	if h == nil {
		return NewValidationError("handler", "handler cannot be nil")
	}
	info := h.Info()
	if info.Name == "" {
		return NewValidationError("name", "handler name cannot be empty")
	}
	if info.Priority < 0 {
		return NewValidationError("priority", "priority must be >= 0")
	}
	if len(info.MimeTypes) == 0 && len(info.Extensions) == 0 {
		return NewValidationError("capabilities", "handler declares no MIME types or extensions")
	}

	if err := r.BaseRegistry.Register(info.Name, h); err != nil {
		// Duplicate registration is a no-op by contract.
		r.logger.Warn("duplicate handler registration ignored", "handler", info.Name)
		return nil
	}

	r.mu.Lock()
	for _, existing := range r.ordered {
		if existing.Info().Priority == info.Priority {
			r.logger.Warn("handler priority tie",
				"handler", info.Name, "other", existing.Info().Name, "priority", info.Priority)
			break
		}
	}
	r.ordered = append(r.ordered, h)
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].Info().Priority > r.ordered[j].Info().Priority
	})
	r.health[info.Name] = &HealthRecord{}
	r.mu.Unlock()

	r.logger.Info("registered preview handler",
		"handler", info.Name, "priority", info.Priority,
		"mime_types", len(info.MimeTypes), "extensions", len(info.Extensions))
	return nil
}

// Select returns the highest-priority enabled handler whose capability
// predicate matches, or nil. A panicking predicate disables its handler and
// selection continues with the next candidate.
func (r *HandlerRegistry) Select(mimeType, fileName string) Handler {
	r.mu.RLock()
	candidates := make([]Handler, len(r.ordered))
	copy(candidates, r.ordered)
	r.mu.RUnlock()

	for _, h := range candidates {
		name := h.Info().Name

		r.mu.RLock()
		skip := r.disabled[name]
		r.mu.RUnlock()
		if skip {
			continue
		}

		ok, panicked := r.safeCanPreview(h, mimeType, fileName)
		if panicked {
			r.disable(name, "capability predicate panicked")
			continue
		}
		if ok {
			return h
		}
	}
	return nil
}

// safeCanPreview runs a capability predicate with panic isolation so one
// broken predicate cannot block selection for other handlers.
func (r *HandlerRegistry) safeCanPreview(h Handler, mimeType, fileName string) (ok, panicked bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler capability predicate panicked",
				"handler", h.Info().Name, "panic", rec)
			ok = false
			panicked = true
		}
	}()
	return h.CanPreview(mimeType, fileName), false
}

// RecordOutcome updates the health record for a handler and disables it when
// its failure count crosses the threshold.
func (r *HandlerRegistry) RecordOutcome(name string, succeeded bool, elapsed time.Duration) {
	if _, ok := r.BaseRegistry.Get(name); !ok {
		return
	}

	r.mu.Lock()
	rec, ok := r.health[name]
	if !ok {
		rec = &HealthRecord{}
		r.health[name] = rec
	}
	rec.observe(succeeded, elapsed)
	crossed := !succeeded && rec.FailureCount > r.failureThreshold && !r.disabled[name]
	if crossed {
		r.disabled[name] = true
	}
	r.mu.Unlock()

	if crossed {
		r.logger.Warn("handler disabled after repeated failures",
			"handler", name, "failures", r.failureThreshold+1)
	}
}

// ResetDisabled clears the disabled set. Operator-invoked recovery; there is
// no automatic expiry.
func (r *HandlerRegistry) ResetDisabled() {
	r.mu.Lock()
	n := len(r.disabled)
	r.disabled = make(map[string]bool)
	r.mu.Unlock()

	if n > 0 {
		r.logger.Info("re-enabled disabled handlers", "count", n)
	}
}

// Disabled returns the names of currently disabled handlers, sorted.
func (r *HandlerRegistry) Disabled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.disabled))
	for name := range r.disabled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Health returns a copy of a handler's health record.
func (r *HandlerRegistry) Health(name string) (HealthRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.health[name]
	if !ok {
		return HealthRecord{}, false
	}
	return *rec, true
}

// HealthSnapshot returns a copy of every health record, keyed by handler
// name.
func (r *HandlerRegistry) HealthSnapshot() map[string]HealthRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]HealthRecord, len(r.health))
	for name, rec := range r.health {
		snapshot[name] = *rec
	}
	return snapshot
}

// Handlers returns descriptors in selection order.
func (r *HandlerRegistry) Handlers() []HandlerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]HandlerInfo, 0, len(r.ordered))
	for _, h := range r.ordered {
		infos = append(infos, h.Info())
	}
	return infos
}

// disable moves a handler to the disabled set.
func (r *HandlerRegistry) disable(name, reason string) {
	r.mu.Lock()
	already := r.disabled[name]
	r.disabled[name] = true
	r.mu.Unlock()

	if !already {
		r.logger.Warn("handler disabled", "handler", name, "reason", reason)
	}
}
