package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldpoint/fieldpoint-core/internal/infrastructure/logging"
	"github.com/fieldpoint/fieldpoint-core/internal/infrastructure/mqtt"
	"github.com/fieldpoint/fieldpoint-core/internal/manager"
)

// commandPayload is the JSON body accepted on device command topics.
// Values takes precedence over Value when both are present.
type commandPayload struct {
	Register string `json:"register"`
	Value    any    `json:"value,omitempty"`
	Values   []any  `json:"values,omitempty"`
}

// startCommandBridge subscribes to the per-device command topics and
// relays register writes into the device table. Results surface on the
// next poll pass; a failed command is logged, never retried.
func startCommandBridge(client *mqtt.Client, mgr *manager.Manager, log *logging.Logger) error {
	return client.Subscribe(mqtt.Topics{}.AllDeviceCommands(), 1, deviceCommandHandler(mgr, log))
}

// deviceCommandHandler builds the subscription callback. Split out so
// the dispatch logic is testable without a broker.
func deviceCommandHandler(mgr *manager.Manager, log *logging.Logger) mqtt.MessageHandler {
	prefix := mqtt.Topics{}.DeviceCommand("")
	return func(topic string, payload []byte) error {
		deviceID := strings.TrimPrefix(topic, prefix)
		if deviceID == "" || deviceID == topic || strings.Contains(deviceID, "/") {
			return fmt.Errorf("command on unexpected topic %q", topic)
		}

		var cmd commandPayload
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("malformed command for %q: %w", deviceID, err)
		}
		if cmd.Register == "" {
			return fmt.Errorf("command for %q missing register", deviceID)
		}

		d, err := mgr.GetDevice(deviceID)
		if err != nil {
			return fmt.Errorf("command for %q: %w", deviceID, err)
		}

		if len(cmd.Values) > 0 {
			err = d.WriteMultiple(cmd.Register, cmd.Values)
		} else {
			err = d.WriteRegister(cmd.Register, cmd.Value)
		}
		if err != nil {
			return fmt.Errorf("command write %s/%s: %w", deviceID, cmd.Register, err)
		}

		log.Debug("command applied", "device_id", deviceID, "register", cmd.Register)
		return nil
	}
}
