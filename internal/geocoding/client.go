// Package geocoding переводит адрес в координаты через OpenCage API.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/apperr"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/config"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var ErrNotConfigured = errors.New("geocoder API key is not configured")

// Client - реализация service.CoordinateResolver
type Client struct {
	baseURL    string
	apiKey     string
	suffix     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewClient создает клиент геокодера. Таймаут ограничивает и ожидание лимитера, и сам запрос.
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	limit := rate.Inf
	if cfg.GeocoderRatePerSecond > 0 {
		limit = rate.Limit(cfg.GeocoderRatePerSecond)
	}
	return &Client{
		baseURL:    cfg.GeocoderURL,
		apiKey:     cfg.GeocoderAPIKey,
		suffix:     cfg.GeocoderAddressSuffix,
		timeout:    cfg.GeocoderTimeout,
		httpClient: &http.Client{Timeout: cfg.GeocoderTimeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

type openCageResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
		Formatted string `json:"formatted"`
	} `json:"results"`
}

// Resolve возвращает координаты первого найденного совпадения.
// Ошибки: KindAddressNotFound, если совпадений нет; KindResolverUnavailable во всех остальных случаях.
func (c *Client) Resolve(ctx context.Context, address string) (models.Coordinates, error) {
	const op = "geocoding.Resolve"
	log := c.logger.WithFields(logrus.Fields{
		"service": "geocoding",
		"method":  "Resolve",
		"address": address,
	})

	if c.apiKey == "" {
		log.Error("Geocoder API key is not configured")
		return models.Coordinates{}, apperr.Wrap(apperr.KindResolverUnavailable, "geocoder is not configured", ErrNotConfigured).WithOp(op)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		log.WithError(err).Warn("Geocoder rate limit wait aborted")
		return models.Coordinates{}, apperr.Wrap(apperr.KindResolverUnavailable, "geocoder is busy", err).WithOp(op)
	}

	params := url.Values{}
	params.Set("q", c.query(address))
	params.Set("key", c.apiKey)
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.Coordinates{}, apperr.Wrap(apperr.KindResolverUnavailable, "failed to build geocoder request", err).WithOp(op)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Geocoder request failed")
		return models.Coordinates{}, apperr.Wrap(apperr.KindResolverUnavailable, "geocoder is unreachable", err).WithOp(op)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Warn("Geocoder upstream error")
		return models.Coordinates{}, apperr.Wrap(apperr.KindResolverUnavailable, "geocoder upstream error",
			fmt.Errorf("unexpected status code %d", resp.StatusCode)).WithOp(op)
	}

	var payload openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.WithError(err).Warn("Failed to decode geocoder payload")
		return models.Coordinates{}, apperr.Wrap(apperr.KindResolverUnavailable, "invalid geocoder response", err).WithOp(op)
	}

	if len(payload.Results) == 0 {
		log.Info("Address not found by geocoder")
		return models.Coordinates{}, apperr.New(apperr.KindAddressNotFound, "address not found").WithOp(op)
	}

	first := payload.Results[0].Geometry
	log.WithFields(logrus.Fields{"lat": first.Lat, "lng": first.Lng}).Debug("Address resolved")
	return models.Coordinates{Latitude: first.Lat, Longitude: first.Lng}, nil
}

// query добавляет к адресу город/регион/страну организации
func (c *Client) query(address string) string {
	address = strings.TrimSpace(address)
	if c.suffix == "" {
		return address
	}
	return address + ", " + c.suffix
}
