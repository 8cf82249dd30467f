package bridge

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Config"
	logger "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Logger"
	flpmodels "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models"
)

var ErrNotConnected = errors.New("mqtt client is not connected")

const inboxSize = 1024

// MessageHandler handles one inbound message
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// MQTTClient owns the broker connection: it subscribes to the sensor topic
// and publishes acknowledgements on the response topic.
type MQTTClient struct {
	cfg       config.MQTTConfig
	brokerURL string
	logger    *logger.Logger
	client    mqtt.Client

	inbox    chan mqtt.Message
	done     chan struct{}
	stopOnce sync.Once
}

func NewMQTTClient(cfg *config.Config, log *logger.Logger) *MQTTClient {
	return &MQTTClient{
		cfg:       cfg.MQTT,
		brokerURL: cfg.GetMQTTBrokerURL(),
		logger:    log.WithComponent("mqtt"),
	}
}

// Start connects and subscribes. Messages are delivered to handler one at a
// time in arrival order, off paho's router goroutine, so handler may publish.
// Reconnects resubscribe automatically.
func (c *MQTTClient) Start(ctx context.Context, handler MessageHandler) error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.brokerURL).
		SetClientID(c.cfg.ClientID).
		SetOrderMatters(true).
		SetKeepAlive(c.cfg.KeepAlive).
		SetPingTimeout(c.cfg.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(true)

	if c.cfg.BrokerUser != "" {
		opts.SetUsername(c.cfg.BrokerUser)
		opts.SetPassword(c.cfg.BrokerPass)
	}

	if c.cfg.UseTLS {
		tlsCfg, err := c.tlsConfig()
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	// paho's router must not block on a publish, and handlers wait on the ack
	// token. A single worker drains the inbox so arrival order is kept.
	c.inbox = make(chan mqtt.Message, inboxSize)
	c.done = make(chan struct{})
	go c.deliver(ctx, handler)

	onMessage := func(_ mqtt.Client, m mqtt.Message) {
		select {
		case c.inbox <- m:
		case <-c.done:
		}
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.logger.Logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnConnect = func(client mqtt.Client) {
		c.logger.Logger.Info().Str("broker", c.brokerURL).Str("topic", c.cfg.SensorTopic).Msg("MQTT connected, subscribing")
		if token := client.Subscribe(c.cfg.SensorTopic, byte(c.cfg.QoS), onMessage); token.Wait() && token.Error() != nil {
			c.logger.Logger.Error().Err(token.Error()).Str("topic", c.cfg.SensorTopic).Msg("MQTT subscribe failed")
		}
	}

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		c.Stop()
		return fmt.Errorf("mqtt connect %s: %w", c.brokerURL, token.Error())
	}
	return nil
}

// PublishAck publishes ack on the response topic
func (c *MQTTClient) PublishAck(ack flpmodels.Ack) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(ack)
	if err != nil {
		return fmt.Errorf("marshal ack: %w", err)
	}

	token := c.client.Publish(c.cfg.ResponseTopic, byte(c.cfg.QoS), false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", c.cfg.ResponseTopic, token.Error())
	}
	c.logger.Logger.Debug().Str("topic", c.cfg.ResponseTopic).Str("status", ack.Status).Msg("Published ack")
	return nil
}

func (c *MQTTClient) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

func (c *MQTTClient) deliver(ctx context.Context, handler MessageHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case m := <-c.inbox:
			handler(ctx, m.Topic(), m.Payload())
		}
	}
}

// Stop disconnects, giving in-flight work a short quiesce period
func (c *MQTTClient) Stop() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(500)
	}
	c.stopOnce.Do(func() {
		if c.done != nil {
			close(c.done)
		}
	})
}

// tlsConfig builds the TLS settings. A client certificate and key enable
// mutual TLS as AWS IoT requires.
func (c *MQTTClient) tlsConfig() (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if c.cfg.CACertPath != "" {
		ca, err := os.ReadFile(c.cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("bad CA file %s", c.cfg.CACertPath)
		}
		cfg.RootCAs = pool
	}

	if c.cfg.CertPath != "" || c.cfg.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(c.cfg.CertPath, c.cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}
