package mqtt

import "errors"

var (
	ErrConnectionFailed = errors.New("mqtt connection failed")
	ErrNotConnected     = errors.New("mqtt not connected")
	ErrPublishFailed    = errors.New("mqtt publish failed")
	ErrInvalidTopic     = errors.New("invalid mqtt topic")
	ErrInvalidQoS       = errors.New("invalid mqtt qos")
)
