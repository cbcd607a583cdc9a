// Package clickhouse queries the external time-series store over its HTTP
// interface and aggregates the fixed dashboard metrics.
package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zerotwo/sensor-gateway/apierr"
	"github.com/zerotwo/sensor-gateway/config"
)

// Queries run against the span table fed by the OTLP pipeline. Each reads
// a fixed lookback window; none depends on another.
const co2SeriesQuery = `
    SELECT
        toStartOfInterval(parseDateTime64BestEffort(SpanAttributes['timestamp']), toIntervalMillisecond(10000)) as time,
        avg(JSONExtractFloat(SpanAttributes['payload'], 'co2')) as co2_ppm
    FROM
        events.otel_traces
    WHERE
        JSONHas(SpanAttributes['payload'], 'co2')
        AND SpanName = 'data'
        AND (
            Timestamp >= now() - INTERVAL 3 HOUR
        )
    GROUP BY
        time
    ORDER BY
        time DESC;
`

const co2LatestQuery = `
    SELECT
        avg(JSONExtractFloat(SpanAttributes['payload'], 'co2')) as avg_co2
    FROM
        events.otel_traces
    WHERE
        JSONHas(SpanAttributes['payload'], 'co2')
        AND SpanName = 'data'
        AND Timestamp >= now() - INTERVAL 2 MINUTE
`

const humidityLatestQueryFmt = `
    SELECT
        avg(JSONExtractFloat(SpanAttributes['payload'], 'humidity')) as humidity
    FROM
        events.otel_traces
    WHERE
        JSONHas(SpanAttributes['payload'], 'humidity')
        AND SpanName = 'data'
        AND SpanAttributes['bucket'] = '%s'
        AND Timestamp >= now() - INTERVAL 2 HOUR
`

// Dashboard holds the three independently-sourced dashboard metrics. Each
// value is the store's result set, passed through opaquely.
type Dashboard struct {
	CO2Values json.RawMessage `json:"co2_values"`
	CO2Latest json.RawMessage `json:"co2_latest"`
	HumLatest json.RawMessage `json:"hum_latest"`
}

// Client sends raw queries to ClickHouse over HTTP with header credentials.
type Client struct {
	httpClient *http.Client
	url        string
	user       string
	password   string

	humidityQuery string
}

// escapeLiteral makes a string safe inside a single-quoted ClickHouse
// string literal.
var escapeLiteral = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// New builds a Client from the gateway configuration.
func New(cfg config.Config) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		url:           cfg.ClickHouseURL,
		user:          cfg.ClickHouseUser,
		password:      cfg.ClickHousePassword,
		humidityQuery: fmt.Sprintf(humidityLatestQueryFmt, escapeLiteral.Replace(cfg.HumidityBucket)),
	}
}

// CO2Series returns average CO2 readings in 10-second windows over the
// trailing 3 hours, newest window first.
func (c *Client) CO2Series(ctx context.Context) (json.RawMessage, error) {
	return c.query(ctx, co2SeriesQuery)
}

// CO2Latest returns the average CO2 reading over the trailing 2 minutes.
func (c *Client) CO2Latest(ctx context.Context) (json.RawMessage, error) {
	return c.query(ctx, co2LatestQuery)
}

// HumidityLatest returns the average humidity over the trailing 2 hours,
// filtered to the configured humidity bucket.
func (c *Client) HumidityLatest(ctx context.Context) (json.RawMessage, error) {
	return c.query(ctx, c.humidityQuery)
}

// Dashboard issues the three metric queries concurrently and joins them
// all-or-nothing: the first failure cancels the siblings and fails the
// whole aggregation. No partial dashboard is ever returned.
func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	var dashboard Dashboard

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := c.CO2Series(ctx)
		if err != nil {
			return fmt.Errorf("co2_values: %w", err)
		}
		dashboard.CO2Values = data
		return nil
	})
	g.Go(func() error {
		data, err := c.CO2Latest(ctx)
		if err != nil {
			return fmt.Errorf("co2_latest: %w", err)
		}
		dashboard.CO2Latest = data
		return nil
	})
	g.Go(func() error {
		data, err := c.HumidityLatest(ctx)
		if err != nil {
			return fmt.Errorf("hum_latest: %w", err)
		}
		dashboard.HumLatest = data
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return dashboard, nil
}

// query posts raw SQL to ClickHouse and returns the JSON result set.
func (c *Client) query(ctx context.Context, sql string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(sql))
	if err != nil {
		return nil, apierr.New(apierr.BackendUnavailable, err)
	}
	req.Header.Set("X-ClickHouse-Format", "JSON")
	req.Header.Set("X-ClickHouse-User", c.user)
	req.Header.Set("X-ClickHouse-Key", c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierr.WithDetail(apierr.BackendUnavailable, err, "query clickhouse")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, apierr.Newf(apierr.BackendError,
			"clickhouse responded %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var result json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apierr.WithDetail(apierr.BackendError, err, "decode clickhouse response")
	}
	return result, nil
}
