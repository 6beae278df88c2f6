// Package util provides helpers shared across integration tests.
package util

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ReadyTopic is used to check that the broker routes telemetry topics.
const ReadyTopic = "solar/_ready/S00/P00000/telemetry"

// BrokerReadyTimeout bounds the wait for a publish round trip.
const BrokerReadyTimeout = 10 * time.Second

const brokerConf = "listener 1883\nallow_anonymous true\npersistence false\n"

// Broker is a disposable Mosquitto container.
type Broker struct {
	URL  string
	cont tc.Container
	dir  string
}

// Close terminates the container and removes its configuration.
func (b *Broker) Close() {
	if b.cont != nil {
		_ = b.cont.Terminate(context.Background())
	}
	_ = os.RemoveAll(b.dir)
}

// StartBroker runs eclipse-mosquitto and returns once a message published on
// ReadyTopic comes back to a subscriber.
func StartBroker(ctx context.Context) (*Broker, error) {
	dir, err := os.MkdirTemp("", "solar-broker")
	if err != nil {
		return nil, err
	}
	b := &Broker{dir: dir}
	conf := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(conf, []byte(brokerConf), 0o644); err != nil {
		b.Close()
		return nil, err
	}

	b.cont, err = tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
			Files: []tc.ContainerFile{{
				HostFilePath:      conf,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			}},
		},
		Started: true,
	})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("start mosquitto: %w", err)
	}
	endpoint, err := b.cont.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		b.Close()
		return nil, err
	}
	b.URL = endpoint

	readyCtx, cancel := context.WithTimeout(ctx, BrokerReadyTimeout)
	defer cancel()
	if err := roundTrip(readyCtx, b.URL); err != nil {
		b.Close()
		return nil, fmt.Errorf("broker not ready: %w", err)
	}
	return b, nil
}

// roundTrip retries connecting, subscribing to ReadyTopic and publishing on
// it until the message is delivered back.
func roundTrip(ctx context.Context, broker string) error {
	for {
		err := tryRoundTrip(ctx, broker)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func tryRoundTrip(ctx context.Context, broker string) error {
	cli := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("solar-ready"))
	if tok := cli.Connect(); tok.Wait() && tok.Error() != nil {
		return tok.Error()
	}
	defer cli.Disconnect(100)

	got := make(chan struct{}, 1)
	if tok := cli.Subscribe(ReadyTopic, 1, func(paho.Client, paho.Message) {
		select {
		case got <- struct{}{}:
		default:
		}
	}); tok.Wait() && tok.Error() != nil {
		return tok.Error()
	}
	if tok := cli.Publish(ReadyTopic, 1, false, []byte("ready")); tok.Wait() && tok.Error() != nil {
		return tok.Error()
	}
	select {
	case <-got:
		return nil
	case <-time.After(time.Second):
		return fmt.Errorf("no message on %s", ReadyTopic)
	case <-ctx.Done():
		return ctx.Err()
	}
}
