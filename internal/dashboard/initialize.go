package dashboard

import (
	"fmt"
	"os"

	"github.com/autopeer-io/ridertrack/internal/dashboard/broker"
	"github.com/autopeer-io/ridertrack/pkg/log"
	"github.com/autopeer-io/ridertrack/pkg/mqtt"
	"github.com/autopeer-io/ridertrack/pkg/mqtt/topic"
	"github.com/autopeer-io/ridertrack/pkg/options"
)

func InitializeMQTTClient(opts *options.MqttOptions, topics *topic.Builder) (mqtt.Client, error) {
	cfg := opts.ToClientConfig()

	if cfg.ClientID == "" {
		hostname, _ := os.Hostname()
		cfg.ClientID = fmt.Sprintf("ridertrack-%s-%d", hostname, os.Getpid())
	}
	broker.WillConfig(cfg, topics)

	mqttclient, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}

	return mqttclient, nil
}
