// Package telemetry handles MQTT presence telemetry publishing.
package telemetry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/gobancho-project/gobancho/internal/config"
	"github.com/gobancho-project/gobancho/internal/events"
	"github.com/gobancho-project/gobancho/internal/util"
)

// MQTT topic prefixes
const (
	TopicPresenceLogin    = "bancho/presence/login"
	TopicPresenceLogout   = "bancho/presence/logout"
	TopicPresenceRestrict = "bancho/presence/restrict"
)

// MQTTHandler manages the MQTT connection and publishes presence events.
type MQTTHandler struct {
	cfg    *config.Config
	bus    *events.Bus
	client mqtt.Client

	// Metadata included in every message
	metadata map[string]interface{}
}

// NewMQTTHandler creates a new MQTT telemetry handler.
func NewMQTTHandler(cfg *config.Config, bus *events.Bus) (*MQTTHandler, error) {
	mqttCfg := cfg.MQTT

	if !mqttCfg.Enabled {
		return nil, fmt.Errorf("MQTT is disabled")
	}

	sysInfo := util.GetSystemInfo()
	metadata := map[string]interface{}{
		"hostname": sysInfo.Hostname,
		"platform": sysInfo.OS,
		"server":   cfg.Bancho.ServerName,
	}

	handler := &MQTTHandler{
		cfg:      cfg,
		bus:      bus,
		metadata: metadata,
	}

	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if mqttCfg.UseTLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, mqttCfg.BrokerURL, mqttCfg.Port))

	if mqttCfg.ClientID != "" {
		opts.SetClientID(mqttCfg.ClientID)
	} else {
		opts.SetClientID(fmt.Sprintf("gobancho-%s", sysInfo.Hostname))
	}

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(false)

	if mqttCfg.UseTLS {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS12,
		}

		// mTLS: load client certificate
		if mqttCfg.CertFile != "" && mqttCfg.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(mqttCfg.CertFile, mqttCfg.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load MQTT TLS certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}

		opts.SetTLSConfig(tlsConfig)
	}

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Msg("MQTT connected")
	})

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	handler.client = mqtt.NewClient(opts)

	return handler, nil
}

// Start connects to the MQTT broker and subscribes to events.
func (h *MQTTHandler) Start(ctx context.Context) error {
	log.Info().
		Str("broker", h.cfg.MQTT.BrokerURL).
		Int("port", h.cfg.MQTT.Port).
		Msg("connecting to MQTT broker")

	token := h.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect failed: %w", token.Error())
	}

	h.subscribeEvents()

	// Block until context cancelled
	<-ctx.Done()

	h.client.Disconnect(5000)
	log.Info().Msg("MQTT disconnected")

	return nil
}

// subscribeEvents registers event handlers for MQTT publishing.
func (h *MQTTHandler) subscribeEvents() {
	h.bus.Subscribe(events.EventUserLogin, "mqtt.userLogin", h.onUserLogin)
	h.bus.Subscribe(events.EventUserLogout, "mqtt.userLogout", h.onUserLogout)
	h.bus.Subscribe(events.EventUserRestricted, "mqtt.userRestricted", h.onUserRestricted)
}

// publish sends a JSON message to an MQTT topic.
func (h *MQTTHandler) publish(topic string, payload interface{}) {
	if !h.client.IsConnected() {
		return
	}

	msg := h.buildMessage(payload)

	data, err := json.Marshal(msg)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to marshal MQTT message")
		return
	}

	token := h.client.Publish(topic, 1, false, data) // QoS 1
	go func() {
		token.Wait()
		if token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("MQTT publish failed")
		}
	}()
}

// buildMessage combines metadata with the event payload.
func (h *MQTTHandler) buildMessage(payload interface{}) map[string]interface{} {
	msg := make(map[string]interface{})

	for k, v := range h.metadata {
		msg[k] = v
	}

	msg["payload"] = payload
	msg["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	return msg
}

// Event handlers

func (h *MQTTHandler) onUserLogin(ctx context.Context, event events.Event) error {
	h.publish(TopicPresenceLogin, event.Payload)
	return nil
}

func (h *MQTTHandler) onUserLogout(ctx context.Context, event events.Event) error {
	h.publish(TopicPresenceLogout, event.Payload)
	return nil
}

func (h *MQTTHandler) onUserRestricted(ctx context.Context, event events.Event) error {
	h.publish(TopicPresenceRestrict, event.Payload)
	return nil
}
