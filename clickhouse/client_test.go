package clickhouse

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zerotwo/sensor-gateway/apierr"
	"github.com/zerotwo/sensor-gateway/config"
)

func testConfig(url string) config.Config {
	return config.Config{
		ClickHouseURL:      url,
		ClickHouseUser:     "default",
		ClickHousePassword: "secret",
		HumidityBucket:     "humidity-laundry-room",
	}
}

func TestQuerySendsCredentialHeaders(t *testing.T) {
	var sql string
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "JSON", r.Header.Get("X-ClickHouse-Format"))
		assert.Equal(t, "default", r.Header.Get("X-ClickHouse-User"))
		assert.Equal(t, "secret", r.Header.Get("X-ClickHouse-Key"))

		body, _ := io.ReadAll(r.Body)
		sql = string(body)

		w.Write([]byte(`{"rows":1}`))
	}))
	defer stub.Close()

	client := New(testConfig(stub.URL))
	result, err := client.CO2Latest(context.Background())

	assert.NoError(t, err)
	assert.JSONEq(t, `{"rows":1}`, string(result))
	assert.Contains(t, sql, "INTERVAL 2 MINUTE")
	assert.Contains(t, sql, "SpanName = 'data'")
}

func TestHumidityQueryFiltersConfiguredBucket(t *testing.T) {
	var sql string
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sql = string(body)
		w.Write([]byte(`{"rows":1}`))
	}))
	defer stub.Close()

	cfg := testConfig(stub.URL)
	cfg.HumidityBucket = "humidity-cellar"

	client := New(cfg)
	_, err := client.HumidityLatest(context.Background())

	assert.NoError(t, err)
	assert.Contains(t, sql, "SpanAttributes['bucket'] = 'humidity-cellar'")
	assert.Contains(t, sql, "INTERVAL 2 HOUR")
}

func TestHumidityQueryEscapesBucketLiteral(t *testing.T) {
	var sql string
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sql = string(body)
		w.Write([]byte(`{"rows":0}`))
	}))
	defer stub.Close()

	cfg := testConfig(stub.URL)
	cfg.HumidityBucket = `o'brien\attic`

	client := New(cfg)
	_, err := client.HumidityLatest(context.Background())

	assert.NoError(t, err)
	assert.Contains(t, sql, `SpanAttributes['bucket'] = 'o\'brien\\attic'`)
}

func TestCO2SeriesQueryShape(t *testing.T) {
	var sql string
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sql = string(body)
		w.Write([]byte(`{"rows":0}`))
	}))
	defer stub.Close()

	client := New(testConfig(stub.URL))
	_, err := client.CO2Series(context.Background())

	assert.NoError(t, err)
	assert.Contains(t, sql, "toIntervalMillisecond(10000)")
	assert.Contains(t, sql, "INTERVAL 3 HOUR")
	assert.Contains(t, sql, "ORDER BY")
}

func TestQueryFailureStatusCarriesBody(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Code: 516. DB::Exception: authentication failed", http.StatusForbidden)
	}))
	defer stub.Close()

	client := New(testConfig(stub.URL))
	_, err := client.CO2Latest(context.Background())

	assert.Error(t, err)
	assert.Equal(t, apierr.BackendError, apierr.KindOf(err))
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestQueryNetworkFailure(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	stub.Close() // nothing listening anymore

	client := New(testConfig(stub.URL))
	_, err := client.CO2Latest(context.Background())

	assert.Error(t, err)
	assert.Equal(t, apierr.BackendUnavailable, apierr.KindOf(err))
}

func TestQueryUndecodableBody(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not json"))
	}))
	defer stub.Close()

	client := New(testConfig(stub.URL))
	_, err := client.CO2Latest(context.Background())

	assert.Error(t, err)
	assert.Equal(t, apierr.BackendError, apierr.KindOf(err))
}

func TestDashboardIssuesAllThreeQueries(t *testing.T) {
	var requests atomic.Int64
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"rows":1}`))
	}))
	defer stub.Close()

	client := New(testConfig(stub.URL))
	dashboard, err := client.Dashboard(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(3), requests.Load())
	assert.JSONEq(t, `{"rows":1}`, string(dashboard.CO2Values))
	assert.JSONEq(t, `{"rows":1}`, string(dashboard.CO2Latest))
	assert.JSONEq(t, `{"rows":1}`, string(dashboard.HumLatest))
}

func TestDashboardAllOrNothing(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "humidity") {
			http.Error(w, "table is read-locked", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"rows":1}`))
	}))
	defer stub.Close()

	client := New(testConfig(stub.URL))
	dashboard, err := client.Dashboard(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "hum_latest")
	assert.Equal(t, Dashboard{}, dashboard)
}
