// Package mqtt provides MQTT client connectivity for Sol Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Sol Core uses MQTT as the outbound command channel to physical
// controllers. Resolved commands are published to one well-known topic per
// device category; the controllers subscribe and execute the timing
// themselves.
//
//	Sol Core → MQTT Broker → Controllers (ESP32, LED boards)
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceCommand("led")
//	err = client.Publish(topic, []byte(`{"state":"ON"}`), 1, false)
package mqtt
