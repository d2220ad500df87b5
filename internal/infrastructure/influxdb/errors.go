package influxdb

import "errors"

var (
	// ErrNotConnected indicates the client is not connected to InfluxDB
	ErrNotConnected = errors.New("influxdb: client not connected")

	// ErrConnectionFailed indicates the connection attempt failed
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed indicates a metric write failed
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled indicates InfluxDB integration is disabled in configuration
	ErrDisabled = errors.New("influxdb: integration disabled")
)
