package publisher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jmartel/consoscan/internal/config"
	"github.com/jmartel/consoscan/pkg/models"
)

// Publisher pushes consumption observations to MQTT and to Home Assistant.
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	haConfig    config.HAConfig
	logger      *slog.Logger
}

// New creates a new publisher (supports both MQTT and HA HTTP API)
func New(mqttCfg config.MQTTConfig, haCfg config.HAConfig, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Validate HA config if enabled
	if haCfg.Enabled {
		if haCfg.URL == "" {
			return nil, fmt.Errorf("Home Assistant URL is required when enabled")
		}
		if haCfg.Token == "" {
			return nil, fmt.Errorf("Home Assistant token is required when enabled")
		}
		if haCfg.EntityID == "" {
			return nil, fmt.Errorf("Home Assistant entity_id is required when enabled")
		}
	}

	var client mqtt.Client
	var topicPrefix string

	if mqttCfg.Enabled {
		if mqttCfg.Broker == "" {
			return nil, fmt.Errorf("MQTT broker address is required when enabled")
		}

		// Set default topic prefix if not specified
		topicPrefix = mqttCfg.TopicPrefix
		if topicPrefix == "" {
			topicPrefix = "energy"
		}

		// Configure MQTT client options
		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
		opts.SetClientID("consoscan")
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectTimeout(10 * time.Second)

		if mqttCfg.Username != "" {
			opts.SetUsername(mqttCfg.Username)
		}
		if mqttCfg.Password != "" {
			opts.SetPassword(mqttCfg.Password)
		}

		// Create and connect client
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
		}
	}

	return &Publisher{
		client:      client,
		topicPrefix: topicPrefix,
		haConfig:    haCfg,
		logger:      logger,
	}, nil
}

// Enabled reports whether at least one publishing target is configured.
func (p *Publisher) Enabled() bool {
	return p.client != nil || p.haConfig.Enabled
}

// MQTTPayload is the JSON message published per observation.
type MQTTPayload struct {
	Date     string  `json:"date"`
	Value    float64 `json:"value"`
	Category string  `json:"category"`
	Column   string  `json:"column"`
	Fallback bool    `json:"fallback,omitempty"`
}

// HAPayload matches the Home Assistant backfill service call data
type HAPayload struct {
	EntityID    string `json:"entity_id"`
	State       string `json:"state"`
	LastChanged string `json:"last_changed"`
	LastUpdated string `json:"last_updated"`
}

// PublishPeriod sends every observation in the period to the enabled
// targets and returns how many observations went out.
func (p *Publisher) PublishPeriod(data *models.PeriodData) (int, error) {
	if !p.Enabled() {
		return 0, fmt.Errorf("no publishing targets are enabled in config")
	}

	published := 0
	for _, obs := range data.Points {
		if p.client != nil {
			if err := p.publishMQTT(obs, data); err != nil {
				return published, err
			}
		}
		if p.haConfig.Enabled {
			if err := p.publishHA(obs); err != nil {
				return published, err
			}
		}
		published++
	}

	p.logger.Info("published period",
		"category", data.Category, "observations", published)
	return published, nil
}

// publishMQTT sends one observation to <prefix>/<category>.
func (p *Publisher) publishMQTT(obs models.Observation, data *models.PeriodData) error {
	payload := MQTTPayload{
		Date:     obs.Date.Format(time.RFC3339),
		Value:    obs.Value,
		Category: string(data.Category),
		Column:   data.Column,
		Fallback: data.Fallback,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding MQTT payload: %w", err)
	}

	topic := fmt.Sprintf("%s/%s", p.topicPrefix, data.Category)
	token := p.client.Publish(topic, 1, false, body)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// publishHA sends one observation to Home Assistant via HTTP API
func (p *Publisher) publishHA(obs models.Observation) error {
	// Build the full API URL (AppDaemon API endpoint)
	apiURL := fmt.Sprintf("%s/api/appdaemon/backfill_state", p.haConfig.URL)

	timestamp := obs.Date.Format(time.RFC3339)
	payload := HAPayload{
		EntityID:    p.haConfig.EntityID,
		State:       fmt.Sprintf("%.2f", obs.Value),
		LastChanged: timestamp,
		LastUpdated: timestamp,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest("POST", apiURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read error response body for debugging
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
