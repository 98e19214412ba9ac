package publisher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jifmar/fleetwatch/internal/config"
)

const publishTimeout = 10 * time.Second

// Client is the part of an MQTT client the publisher uses
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher handles publishing vessel summaries to MQTT and Home Assistant
type Publisher struct {
	client       Client
	topicPrefix  string
	haConfig     config.HAConfig
	entityPrefix string
	httpClient   *http.Client
}

// New creates a new publisher (supports both MQTT and HA HTTP API)
func New(mqttCfg config.MQTTConfig, haCfg config.HAConfig) (*Publisher, error) {
	if haCfg.Enabled {
		if haCfg.URL == "" {
			return nil, fmt.Errorf("Home Assistant URL is required when enabled")
		}
		if haCfg.Token == "" {
			return nil, fmt.Errorf("Home Assistant token is required when enabled")
		}
	}

	p := &Publisher{
		haConfig:     haCfg,
		entityPrefix: haCfg.EntityPrefix,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	if p.entityPrefix == "" {
		p.entityPrefix = "fleetwatch"
	}

	if mqttCfg.Enabled {
		if mqttCfg.Broker == "" {
			return nil, fmt.Errorf("MQTT broker address is required when enabled")
		}

		clientID := mqttCfg.ClientID
		if clientID == "" {
			clientID = "fleetwatch"
		}

		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
		opts.SetClientID(clientID)
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectTimeout(10 * time.Second)

		if mqttCfg.Username != "" {
			opts.SetUsername(mqttCfg.Username)
		}
		if mqttCfg.Password != "" {
			opts.SetPassword(mqttCfg.Password)
		}

		client := mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
		}
		p.client = client
		p.topicPrefix = topicPrefix(mqttCfg.TopicPrefix)
	}

	if p.client == nil && !haCfg.Enabled {
		return nil, fmt.Errorf("neither MQTT nor Home Assistant is enabled in config")
	}

	return p, nil
}

// NewWithClient creates an MQTT-only publisher around an existing client
func NewWithClient(client Client, prefix string) *Publisher {
	return &Publisher{client: client, topicPrefix: topicPrefix(prefix)}
}

func topicPrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return "fleetwatch"
	}
	return prefix
}

// Topic returns the state topic of a vessel
func (p *Publisher) Topic(vessel string) string {
	return fmt.Sprintf("%s/%s/state", p.topicPrefix, Slug(vessel))
}

// PublishVessel sends a vessel summary as a retained JSON message and, when
// enabled, as Home Assistant sensor states
func (p *Publisher) PublishVessel(s Summary) error {
	if p.client != nil {
		body, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encoding payload: %w", err)
		}

		token := p.client.Publish(p.Topic(s.Vessel), 1, true, body)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("publishing %s: timed out after %s", s.Vessel, publishTimeout)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("publishing %s: %w", s.Vessel, err)
		}
	}

	if p.haConfig.Enabled {
		if err := p.postStates(s); err != nil {
			return err
		}
	}

	return nil
}

// haState is the body of a Home Assistant state update
type haState struct {
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
}

func (p *Publisher) postStates(s Summary) error {
	base := fmt.Sprintf("sensor.%s_%s", p.entityPrefix, Slug(s.Vessel))

	states := map[string]haState{
		base + "_distance": {
			State: fmt.Sprintf("%.2f", s.DistanceNM),
			Attributes: map[string]interface{}{
				"unit_of_measurement": "NM",
				"friendly_name":       s.Vessel + " distance",
				"latitude":            s.Latitude,
				"longitude":           s.Longitude,
				"last_fix":            s.LastFix,
			},
		},
		base + "_consumption": {
			State: fmt.Sprintf("%.2f", s.TotalM3),
			Attributes: map[string]interface{}{
				"unit_of_measurement": "m³",
				"friendly_name":       s.Vessel + " consumption",
				"year":                s.Year,
				"l_per_mile":          s.LPerMile,
			},
		},
	}

	for entity, state := range states {
		if err := p.postState(entity, state); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) postState(entity string, state haState) error {
	apiURL := fmt.Sprintf("%s/api/states/%s", strings.TrimSuffix(p.haConfig.URL, "/"), entity)

	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, apiURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP error for %s: status %d, response: %s", entity, resp.StatusCode, string(respBody))
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// Slug turns a vessel name into a topic and entity id segment: "JIF LACYDON" becomes "jif_lacydon"
func Slug(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
