package publisher

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmartel/consoscan/internal/config"
	"github.com/jmartel/consoscan/pkg/models"
)

func samplePeriod() *models.PeriodData {
	return &models.PeriodData{
		Category: models.Electricity,
		Column:   models.ElectricityColumn,
		Points: []models.Observation{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 120.5},
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 118},
		},
	}
}

func TestNewValidatesHAConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.HAConfig
	}{
		{"missing URL", config.HAConfig{Enabled: true, Token: "t", EntityID: "e"}},
		{"missing token", config.HAConfig{Enabled: true, URL: "http://ha", EntityID: "e"}},
		{"missing entity", config.HAConfig{Enabled: true, URL: "http://ha", Token: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(config.MQTTConfig{}, tt.cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestNewRequiresBrokerWhenMQTTEnabled(t *testing.T) {
	_, err := New(config.MQTTConfig{Enabled: true}, config.HAConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker")
}

func TestPublishPeriodWithoutTargets(t *testing.T) {
	pub, err := New(config.MQTTConfig{}, config.HAConfig{}, nil)
	require.NoError(t, err)
	defer pub.Close()

	assert.False(t, pub.Enabled())
	_, err = pub.PublishPeriod(samplePeriod())
	assert.Error(t, err)
}

func TestPublishPeriodToHomeAssistant(t *testing.T) {
	var mu sync.Mutex
	var payloads []HAPayload
	var tokens []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/appdaemon/backfill_state", r.URL.Path)

		var payload HAPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		mu.Lock()
		payloads = append(payloads, payload)
		tokens = append(tokens, r.Header.Get("Authorization"))
		mu.Unlock()
	}))
	defer server.Close()

	pub, err := New(config.MQTTConfig{}, config.HAConfig{
		Enabled:  true,
		URL:      server.URL,
		Token:    "secret",
		EntityID: "sensor.home_energy_consumption",
	}, nil)
	require.NoError(t, err)
	defer pub.Close()

	n, err := pub.PublishPeriod(samplePeriod())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, payloads, 2)
	assert.Equal(t, "sensor.home_energy_consumption", payloads[0].EntityID)
	assert.Equal(t, "120.50", payloads[0].State)
	assert.Equal(t, "2024-01-01T00:00:00Z", payloads[0].LastChanged)
	assert.Equal(t, "118.00", payloads[1].State)
	assert.Equal(t, "Bearer secret", tokens[0])
}

func TestPublishPeriodReportsHAErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backfill_state unknown", http.StatusNotFound)
	}))
	defer server.Close()

	pub, err := New(config.MQTTConfig{}, config.HAConfig{
		Enabled:  true,
		URL:      server.URL,
		Token:    "secret",
		EntityID: "sensor.home_energy_consumption",
	}, nil)
	require.NoError(t, err)
	defer pub.Close()

	n, err := pub.PublishPeriod(samplePeriod())
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, err.Error(), "404")
}
