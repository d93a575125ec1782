package utils

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/vitwit/kycsbt/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateConfig checks a loaded Config against its struct tags.
func ValidateConfig(cfg *types.Config) error {
	if err := validate.Struct(cfg); err != nil {
		return &types.KycError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}
	return nil
}

// ValidateEndpoints checks a single network's endpoint set.
func ValidateEndpoints(ep types.NetworkEndpoints) error {
	if err := validate.Struct(&ep); err != nil {
		return &types.KycError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid network endpoints: %v", err),
		}
	}
	return nil
}

// ParseNetworkConfig parses a persisted NetworkConfig from JSON
func ParseNetworkConfig(data []byte) (*types.NetworkConfig, error) {
	var cfg types.NetworkConfig

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &types.KycError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to parse network config: %v", err),
		}
	}

	return &cfg, nil
}

// SerializeNetworkConfig converts NetworkConfig to JSON
func SerializeNetworkConfig(cfg types.NetworkConfig) ([]byte, error) {
	return json.Marshal(cfg)
}
