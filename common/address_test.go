package common

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBech32Validator(t *testing.T) {
	v := Bech32Validator{Prefix: "terra"}

	account, err := Bech32FromBytes("terra", RandBytes(20))
	assert.NoError(t, err)
	assert.NoError(t, v.ValidateAddress(account))

	contract, err := Bech32FromBytes("terra", RandBytes(32))
	assert.NoError(t, err)
	assert.NoError(t, v.ValidateAddress(contract))

	other, err := Bech32FromBytes("cosmos", RandBytes(20))
	assert.NoError(t, err)
	assert.ErrorIs(t, v.ValidateAddress(other), ErrInvalidAddress)

	odd, err := Bech32FromBytes("terra", RandBytes(7))
	assert.NoError(t, err)
	assert.ErrorIs(t, v.ValidateAddress(odd), ErrInvalidAddress)

	// broken checksum
	broken := account[:len(account)-1] + flip(account[len(account)-1])
	assert.ErrorIs(t, v.ValidateAddress(broken), ErrInvalidAddress)

	assert.ErrorIs(t, v.ValidateAddress("terra1abc"), ErrInvalidAddress)
	assert.ErrorIs(t, v.ValidateAddress(""), ErrInvalidAddress)
}

func TestEvmValidator(t *testing.T) {
	v := EvmValidator{}

	assert.NoError(t, v.ValidateAddress(RandEthAddress().Hex()))
	assert.ErrorIs(t, v.ValidateAddress(Trim0xPrefix(RandEthAddress().Hex())), ErrInvalidAddress)
	assert.ErrorIs(t, v.ValidateAddress("0x1234"), ErrInvalidAddress)
	assert.ErrorIs(t, v.ValidateAddress("terra1abc"), ErrInvalidAddress)
}

func TestAptosValidator(t *testing.T) {
	v := AptosValidator{}

	assert.NoError(t, v.ValidateAddress("0x1"))
	assert.NoError(t, v.ValidateAddress("0x"+hex.EncodeToString(RandBytes(32))))
	assert.ErrorIs(t, v.ValidateAddress(hex.EncodeToString(RandBytes(32))), ErrInvalidAddress)
	assert.ErrorIs(t, v.ValidateAddress("0x"+hex.EncodeToString(RandBytes(33))), ErrInvalidAddress)
	assert.ErrorIs(t, v.ValidateAddress("0x"), ErrInvalidAddress)
	assert.ErrorIs(t, v.ValidateAddress("0xzz"), ErrInvalidAddress)
}

func flip(c byte) string {
	if c == 'q' {
		return "p"
	}
	return "q"
}
