package types

import (
	"math/big"
	"strconv"
	"strings"
	"time"
)

// KycLevel is the privilege tier recorded by the registry, ordered low to high.
type KycLevel uint8

const (
	LevelNone KycLevel = iota
	LevelBasic
	LevelAdvanced
	LevelPremium
	LevelUltimate
)

var levelNames = map[KycLevel]string{
	LevelNone:     "None",
	LevelBasic:    "Basic",
	LevelAdvanced: "Advanced",
	LevelPremium:  "Premium",
	LevelUltimate: "Ultimate",
}

// String renders the level. Values the registry should never return are
// kept as-is on the record and shown as "Unknown" here.
func (l KycLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "Unknown"
}

// Requestable reports whether a user may ask for this level.
func (l KycLevel) Requestable() bool {
	return l >= LevelBasic && l <= LevelUltimate
}

// ParseLevel accepts either the display name (case-insensitive) or the numeric code.
func ParseLevel(s string) (KycLevel, bool) {
	for l, name := range levelNames {
		if strings.EqualFold(name, s) {
			return l, true
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, false
	}
	return KycLevel(n), true
}

// KycStatus is the registration state stored on chain.
type KycStatus uint8

const (
	StatusNone KycStatus = iota
	StatusApproved
	StatusRevoked
)

func (s KycStatus) String() string {
	switch s {
	case StatusNone:
		return "None"
	case StatusApproved:
		return "Approved"
	case StatusRevoked:
		return "Revoked"
	default:
		return "Unknown"
	}
}

// KycRecord is the positional decoding of getKycInfo.
type KycRecord struct {
	EnsName    string    `json:"ensName" yaml:"ensName"`
	Level      KycLevel  `json:"level" yaml:"level"`
	Status     KycStatus `json:"status" yaml:"status"`
	CreateTime *big.Int  `json:"createTime" yaml:"createTime"`
}

// Registered is true once the identity has requested KYC at least once.
// An empty name is the only "never registered" signal; Status may hold
// its zero value either way.
func (r KycRecord) Registered() bool {
	return r.EnsName != ""
}

// CreatedText renders CreateTime, or "N/A" when the registry has none.
func (r KycRecord) CreatedText() string {
	if r.CreateTime == nil || r.CreateTime.Sign() == 0 || !r.CreateTime.IsInt64() {
		return "N/A"
	}
	return time.Unix(r.CreateTime.Int64(), 0).UTC().Format(time.RFC3339)
}

// HumanCheck is the result of isHuman.
type HumanCheck struct {
	IsValid bool     `json:"isValid"`
	Level   KycLevel `json:"level"`
}

// ContractConfig holds the owner-tunable registry parameters.
type ContractConfig struct {
	RegistrationFee *big.Int `json:"registrationFee"`
	EnsFee          *big.Int `json:"ensFee"`
	MinNameLength   *big.Int `json:"minNameLength"`
	Suffix          string   `json:"suffix"`
	ValidityPeriod  *big.Int `json:"validityPeriod"`
}
