package types

import (
	"errors"
	"time"
)

// Default ENS suffix the registry expects on every requested name.
const DefaultSuffix = ".hsk"

// StoreConfig selects where the network selection is persisted.
type StoreConfig struct {
	Driver   string `json:"driver" yaml:"driver" mapstructure:"driver" validate:"oneof=memory file redis"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path" validate:"required_if=Driver file"`
	RedisURL string `json:"redisUrl,omitempty" yaml:"redisUrl,omitempty" mapstructure:"redis_url" validate:"required_if=Driver redis"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
}

// Config contains global configuration for the kycsbt client.
type Config struct {
	Mainnet NetworkEndpoints `json:"mainnet" yaml:"mainnet" mapstructure:"mainnet"`
	Testnet NetworkEndpoints `json:"testnet" yaml:"testnet" mapstructure:"testnet"`

	// Chain is an optional identifier ("eip155:177") applied at startup.
	Chain  string      `json:"chain,omitempty" yaml:"chain,omitempty" mapstructure:"chain"`
	Suffix string      `json:"suffix" yaml:"suffix" mapstructure:"suffix" validate:"required,startswith=."`
	Store  StoreConfig `json:"store" yaml:"store" mapstructure:"store"`

	// PrivateKey backs the local wallet. Never serialized.
	PrivateKey string `json:"-" yaml:"-" mapstructure:"private_key" validate:"omitempty,hexadecimal"`

	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty" yaml:"defaultTimeout,omitempty" mapstructure:"default_timeout" validate:"gte=0"`
	PollInterval   time.Duration `json:"pollInterval" yaml:"pollInterval" mapstructure:"poll_interval" validate:"gt=0"`
	LogLevel       string        `json:"logLevel" yaml:"logLevel" mapstructure:"log_level" validate:"oneof=debug info warn error"`
	EnableMetrics  bool          `json:"enableMetrics" yaml:"enableMetrics" mapstructure:"enable_metrics"`
	MetricsAddr    string        `json:"metricsAddr,omitempty" yaml:"metricsAddr,omitempty" mapstructure:"metrics_addr"`
	ListenAddr     string        `json:"listenAddr,omitempty" yaml:"listenAddr,omitempty" mapstructure:"listen_addr"`
}

// KycError is the error type surfaced by every package in this module.
type KycError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *KycError) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrInvalidInput      = "INVALID_INPUT"
	ErrInvalidTransition = "INVALID_TRANSITION"
	ErrWriteInFlight     = "WRITE_IN_FLIGHT"
	ErrNotConnected      = "NOT_CONNECTED"
	ErrConnectivity      = "CONNECTIVITY"
	ErrReadFailed        = "READ_FAILED"
	ErrTransactionFailed = "TRANSACTION_FAILED"
	ErrConfigError       = "CONFIG_ERROR"
)

// NewError builds a KycError.
func NewError(code, message string) *KycError {
	return &KycError{Code: code, Message: message}
}

// HasCode reports whether err, or anything it wraps, is a KycError with code.
func HasCode(err error, code string) bool {
	var ke *KycError
	if errors.As(err, &ke) {
		return ke.Code == code
	}
	return false
}
