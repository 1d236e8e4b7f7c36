package model

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentStatus_CanTransition(t *testing.T) {
	allowed := map[IntentStatus][]IntentStatus{
		IntentStatusCreated:          {IntentStatusDepositConfirmed, IntentStatusFailed},
		IntentStatusDepositConfirmed: {IntentStatusAttested, IntentStatusFailed},
		IntentStatusAttested:         {IntentStatusMinted, IntentStatusFailed},
		IntentStatusMinted:           {},
		IntentStatusFailed:           {},
	}
	all := []IntentStatus{
		IntentStatusCreated, IntentStatusDepositConfirmed, IntentStatusAttested,
		IntentStatusMinted, IntentStatusFailed,
	}

	for from, nexts := range allowed {
		for _, to := range all {
			want := false
			for _, n := range nexts {
				if n == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestIntentStatus_IsTerminal(t *testing.T) {
	assert.True(t, IntentStatusMinted.IsTerminal())
	assert.True(t, IntentStatusFailed.IsTerminal())
	for _, s := range NonTerminalIntentStatuses {
		assert.False(t, s.IsTerminal())
	}
}

func TestAmount_StorageRoundTrip(t *testing.T) {
	huge, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	require.True(t, ok)

	for _, v := range []*big.Int{big.NewInt(0), big.NewInt(1), new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18)), huge} {
		a := NewAmount(v)

		stored, err := a.Value()
		require.NoError(t, err)

		var fromText Amount
		require.NoError(t, fromText.Scan(stored))
		assert.Equal(t, 0, a.Cmp(fromText))

		var fromBytes Amount
		require.NoError(t, fromBytes.Scan([]byte(stored.(string))))
		assert.Equal(t, v.String(), fromBytes.String())

		raw, err := json.Marshal(a)
		require.NoError(t, err)
		var fromJSON Amount
		require.NoError(t, json.Unmarshal(raw, &fromJSON))
		assert.Equal(t, v.String(), fromJSON.String())
	}
}

func TestAmount_RejectsInvalid(t *testing.T) {
	var a Amount
	assert.Error(t, a.Scan("-5"))
	assert.Error(t, a.Scan("1.5"))
	assert.Error(t, a.Scan(3.2))
	assert.Error(t, json.Unmarshal([]byte(`12`), &a))
}

func TestAmount_BigIsACopy(t *testing.T) {
	a := NewAmount(big.NewInt(10))
	b := a.Big()
	b.SetInt64(99)
	assert.Equal(t, "10", a.String())
}

func TestIntent_CloneAndValidate(t *testing.T) {
	intent := &Intent{
		IntentID:        "0x01",
		DepositAddress:  "0xabc",
		DepositKeyRef:   "deposit-keys/0x01",
		DepositNonce:    "0x01ff",
		InputAmount:     NewAmount(big.NewInt(100)),
		OutputAmount:    NewAmount(big.NewInt(90)),
		MinOutputAmount: NewAmount(big.NewInt(80)),
	}
	require.NoError(t, intent.Validate())

	cp := intent.Clone()
	cp.Status = IntentStatusFailed
	cp.OutputAmount = NewAmount(big.NewInt(1))
	assert.Equal(t, "90", intent.OutputAmount.String())
	assert.Empty(t, intent.Status)

	nonce, err := intent.DepositNonceBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xff}, nonce)

	intent.MinOutputAmount = NewAmount(big.NewInt(95))
	assert.Error(t, intent.Validate())
}
