// Package httpapi is the HTTP face of the service: routing, parameter
// parsing, response envelopes and error-to-status mapping. All caching and
// orchestration logic lives behind it.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"envscan/cache"
	"envscan/geocode"
	"envscan/iplocate"
	"envscan/metrics"
	"envscan/model"
	"envscan/scan"
)

// CacheAdmin is the slice of the cache store surface the admin endpoints
// need, so the handler can hold stores of different value types together.
type CacheAdmin interface {
	Name() string
	Stats() cache.Stats
	Flush() int
}

type Handler struct {
	resolver     *geocode.Resolver
	orchestrator *scan.Orchestrator
	locator      *iplocate.Locator
	caches       []CacheAdmin
	metrics      *metrics.Registry
	logger       *zap.Logger
	defaultCity  string
}

func NewHandler(
	resolver *geocode.Resolver,
	orchestrator *scan.Orchestrator,
	locator *iplocate.Locator,
	caches []CacheAdmin,
	registry *metrics.Registry,
	logger *zap.Logger,
	defaultCity string,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		resolver:     resolver,
		orchestrator: orchestrator,
		locator:      locator,
		caches:       caches,
		metrics:      registry,
		logger:       logger,
		defaultCity:  defaultCity,
	}
}

// Router assembles the full request pipeline: middleware, API routes,
// prometheus endpoint and the CORS wrapper.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "envscan",
		})
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/scan", h.handleScan).Methods(http.MethodGet)
	api.HandleFunc("/ip", h.handleOwnIP).Methods(http.MethodGet)
	api.HandleFunc("/ip/{ip}", h.handleIP).Methods(http.MethodGet)
	api.HandleFunc("/cache/stats", h.handleCacheStats).Methods(http.MethodGet)
	api.HandleFunc("/cache/flush", h.handleCacheFlush).Methods(http.MethodPost)

	if h.metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(h.metrics.Prometheus(), promhttp.HandlerOpts{}))
	}

	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware(h.logger))
	router.Use(recoveryMiddleware(h.logger))

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	})
	return c.Handler(router)
}

type scanResponse struct {
	Location model.LocationRecord        `json:"location"`
	Degraded bool                        `json:"degraded_location,omitempty"`
	Scan     model.EnvironmentalSnapshot `json:"scan"`
}

// handleScan accepts lat/lon, a city name, or neither (caller IP path) and
// responds with the location plus its environmental snapshot.
func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	query := r.URL.Query()

	var (
		loc      model.LocationRecord
		degraded bool
		err      error
	)
	switch {
	case query.Get("lat") != "" || query.Get("lon") != "":
		lat, lon, perr := parseCoords(query.Get("lat"), query.Get("lon"))
		if perr != nil {
			respondError(w, http.StatusBadRequest, perr.Error())
			return
		}
		loc, degraded = h.resolver.ReverseGeocode(ctx, lat, lon)
	case query.Get("city") != "":
		loc, err = h.resolver.ForwardGeocode(ctx, query.Get("city"))
		if err != nil {
			h.respondGeocodeError(w, err)
			return
		}
	default:
		loc, degraded, err = h.locateCaller(ctx, r)
		if err != nil {
			respondError(w, http.StatusBadGateway, err.Error())
			return
		}
	}

	snap, err := h.orchestrator.PerformScan(ctx, loc.Lat, loc.Lon, loc)
	if err != nil {
		if errors.Is(err, scan.ErrAllSourcesUnavailable) {
			respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The flag and timing are set on the per-request copy only; the cached
	// master stays untouched.
	snap.ResponseTimeMs = time.Since(start).Milliseconds()
	if h.metrics != nil {
		h.metrics.ObserveScanDuration(time.Since(start).Seconds())
	}
	respondJSON(w, http.StatusOK, scanResponse{
		Location: loc,
		Degraded: degraded,
		Scan:     snap,
	})
}

// locateCaller resolves the requesting address to a location. Private and
// unresolvable addresses degrade to the configured default city rather than
// failing the scan.
func (h *Handler) locateCaller(ctx context.Context, r *http.Request) (model.LocationRecord, bool, error) {
	ip := clientIP(r)
	if ip != "" && !iplocate.IsPrivateIP(ip) {
		rec, err := h.locator.Resolve(ctx, ip)
		if err == nil {
			loc, degraded := h.resolver.ReverseGeocode(ctx, rec.Lat, rec.Lon)
			return loc, degraded, nil
		}
		h.logger.Warn("caller ip lookup failed, using default city",
			zap.String("ip", ip),
			zap.Error(err))
	}
	loc, err := h.resolver.ForwardGeocode(ctx, h.defaultCity)
	if err != nil {
		return model.LocationRecord{}, false, err
	}
	return loc, false, nil
}

func (h *Handler) handleIP(w http.ResponseWriter, r *http.Request) {
	h.respondIP(w, r, mux.Vars(r)["ip"])
}

func (h *Handler) handleOwnIP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if ip == "" {
		respondError(w, http.StatusBadRequest, "could not determine caller address")
		return
	}
	h.respondIP(w, r, ip)
}

func (h *Handler) respondIP(w http.ResponseWriter, r *http.Request, ip string) {
	if iplocate.IsPrivateIP(ip) {
		respondJSON(w, http.StatusOK, map[string]string{
			"ip":   ip,
			"note": "private or loopback address, no geolocation available",
		})
		return
	}
	rec, err := h.locator.Resolve(r.Context(), ip)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := make([]cache.Stats, 0, len(h.caches))
	for _, c := range h.caches {
		stats = append(stats, c.Stats())
	}
	respondJSON(w, http.StatusOK, map[string]any{"caches": stats})
}

func (h *Handler) handleCacheFlush(w http.ResponseWriter, r *http.Request) {
	flushed := make(map[string]int, len(h.caches))
	for _, c := range h.caches {
		flushed[c.Name()] = c.Flush()
	}
	respondJSON(w, http.StatusOK, map[string]any{"flushed": flushed})
}

func (h *Handler) respondGeocodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, geocode.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondError(w, http.StatusBadGateway, err.Error())
}

func parseCoords(latRaw, lonRaw string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return 0, 0, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil {
		return 0, 0, errors.New("invalid lon")
	}
	if lat < -90 || lat > 90 {
		return 0, 0, errors.New("lat out of range")
	}
	if lon < -180 || lon > 180 {
		return 0, 0, errors.New("lon out of range")
	}
	return lat, lon, nil
}

// clientIP prefers the first X-Forwarded-For hop, then the remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
