package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	cases := map[KycLevel]string{
		LevelNone:     "None",
		LevelBasic:    "Basic",
		LevelAdvanced: "Advanced",
		LevelPremium:  "Premium",
		LevelUltimate: "Ultimate",
		KycLevel(5):   "Unknown",
		KycLevel(255): "Unknown",
	}
	for level, want := range cases {
		assert.Equal(t, want, level.String(), "level %d", uint8(level))
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "None", StatusNone.String())
	assert.Equal(t, "Approved", StatusApproved.String())
	assert.Equal(t, "Revoked", StatusRevoked.String())
	assert.Equal(t, "Unknown", KycStatus(3).String())
	assert.Equal(t, "Unknown", KycStatus(200).String())
}

func TestRequestable(t *testing.T) {
	assert.False(t, LevelNone.Requestable())
	for _, l := range []KycLevel{LevelBasic, LevelAdvanced, LevelPremium, LevelUltimate} {
		assert.True(t, l.Requestable(), l.String())
	}
	assert.False(t, KycLevel(9).Requestable())
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("premium")
	require.True(t, ok)
	assert.Equal(t, LevelPremium, l)

	l, ok = ParseLevel("2")
	require.True(t, ok)
	assert.Equal(t, LevelAdvanced, l)

	_, ok = ParseLevel("platinum")
	assert.False(t, ok)

	_, ok = ParseLevel("256")
	assert.False(t, ok)
}

func TestCreatedText(t *testing.T) {
	assert.Equal(t, "N/A", KycRecord{}.CreatedText())
	assert.Equal(t, "N/A", KycRecord{CreateTime: big.NewInt(0)}.CreatedText())

	r := KycRecord{CreateTime: big.NewInt(1700000000)}
	assert.Equal(t, "2023-11-14T22:13:20Z", r.CreatedText())
	assert.NotContains(t, r.CreatedText(), "1970")
}

func TestRegistered(t *testing.T) {
	assert.False(t, KycRecord{Status: StatusApproved}.Registered())
	assert.True(t, KycRecord{EnsName: "alice.hsk"}.Registered())
}

func TestDerivePhase(t *testing.T) {
	approved := &KycRecord{EnsName: "alice.hsk", Status: StatusApproved}
	revoked := &KycRecord{EnsName: "alice.hsk", Status: StatusRevoked}
	odd := &KycRecord{EnsName: "alice.hsk", Status: KycStatus(7)}

	assert.Equal(t, PhaseDisconnected, DerivePhase(false, approved))
	assert.Equal(t, PhaseUnregistered, DerivePhase(true, nil))
	assert.Equal(t, PhaseUnregistered, DerivePhase(true, &KycRecord{Status: StatusRevoked}))
	assert.Equal(t, PhaseActive, DerivePhase(true, approved))
	assert.Equal(t, PhaseRevoked, DerivePhase(true, revoked))
	assert.Equal(t, PhaseActive, DerivePhase(true, odd))

	assert.Equal(t, ActionRequest, PhaseUnregistered.Action())
	assert.Equal(t, ActionRevoke, PhaseActive.Action())
	assert.Equal(t, ActionRestore, PhaseRevoked.Action())
	assert.Equal(t, ActionNone, PhaseDisconnected.Action())
}

func TestHasCode(t *testing.T) {
	err := NewError(ErrWriteInFlight, "busy")
	assert.True(t, HasCode(err, ErrWriteInFlight))
	assert.False(t, HasCode(err, ErrReadFailed))
	assert.False(t, HasCode(assert.AnError, ErrReadFailed))
}
