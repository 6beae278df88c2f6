package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/solartelemetry/core/factory"
	"github.com/kilianp07/solartelemetry/core/model"
	"github.com/kilianp07/solartelemetry/core/output"
	"github.com/kilianp07/solartelemetry/infra/logger"
)

// pahoClient is the subset of paho.Client used by the publisher.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher is an output.Sink that publishes each record as JSON on
// <topic_root>/<site>/<string_id>/<panel_id>/telemetry.
type Publisher struct {
	cli        pahoClient
	root       string
	site       string
	runID      string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
	sleep      func(time.Duration)
}

// message flattens the record fields next to the run context.
type message struct {
	model.Wire
	Site  string `json:"site,omitempty"`
	RunID string `json:"run_id,omitempty"`
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Publisher{
		cli:        c,
		root:       cfg.TopicRoot,
		site:       cfg.Site,
		runID:      cfg.RunID,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
		sleep:      time.Sleep,
	}, nil
}

// Topic returns the topic a record is published on.
func (p *Publisher) Topic(rec model.TelemetryRecord) string {
	site := p.site
	if site == "" {
		site = "default"
	}
	return fmt.Sprintf("%s/%s/%s/%s/telemetry", p.root, site, rec.StringID, rec.PanelID)
}

// Write publishes rec, retrying with exponential backoff.
func (p *Publisher) Write(rec model.TelemetryRecord) error {
	payload, err := json.Marshal(message{Wire: rec.Wire(), Site: p.site, RunID: p.runID})
	if err != nil {
		return err
	}
	topic := p.Topic(rec)
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish attempt %d on %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			p.sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Close gracefully disconnects from the broker.
func (p *Publisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}

func init() {
	_ = output.RegisterSink("mqtt", func(conf map[string]any) (output.Sink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPublisher(c)
	})
}
