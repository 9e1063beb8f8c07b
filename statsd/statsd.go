// Package statsd is a helper package that wraps some common statsd methods. It hides the
// datadog dependency so a future migration to another statsd client only needs to edit this
// single file.
package statsd

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

var client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}

func Client() ddstatsd.ClientInterface {
	return client
}

// EmitTickStat reports the duration of one tick stage.
func EmitTickStat(start time.Time, stage string) {
	duration := time.Since(start)
	err := Client().Timing("tick", duration, []string{stage}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit tick stat: %v", err)
	}
}

// EmitGauge reports an instantaneous value such as the live entity count.
func EmitGauge(name string, value float64, tags []string) {
	err := Client().Gauge(name, value, tags, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit gauge %s: %v", name, err)
	}
}

// Init replaces the no-op client with one reporting to the given address.
func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		// The statsd namespace is the prefix of all metrics
		ddstatsd.WithNamespace("queen"),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return err
	}
	client = newClient
	return nil
}

// Close flushes and shuts down the client, restoring the no-op client.
func Close() error {
	err := client.Close()
	client = &ddstatsd.NoOpClient{}
	return err
}
