package terraman

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Type URLs of the messages the faucet signs.
const (
	TypeMsgSend            = "/cosmos.bank.v1beta1.MsgSend"
	TypeMsgExecuteContract = "/cosmwasm.wasm.v1.MsgExecuteContract"
	TypeSecp256k1PubKey    = "/cosmos.crypto.secp256k1.PubKey"

	signModeDirect = 1
)

// Messages are hand encoded with protowire, field numbers follow the
// cosmos-sdk and wasmd .proto files. Zero values are omitted like proto3 does.

type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// appendMessage writes embedded messages even when empty, presence matters for them.
func appendMessage(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendUvarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func (c Coin) marshal() []byte {
	var b []byte
	b = appendString(b, 1, c.Denom)
	b = appendString(b, 2, c.Amount)
	return b
}

func anyBytes(typeURL string, value []byte) []byte {
	var b []byte
	b = appendString(b, 1, typeURL)
	b = appendBytes(b, 2, value)
	return b
}

// Msg is a tx message already wrapped in google.protobuf.Any.
type Msg []byte

func NewMsgSend(from, to string, amount []Coin) Msg {
	var b []byte
	b = appendString(b, 1, from)
	b = appendString(b, 2, to)
	for _, c := range amount {
		b = appendMessage(b, 3, c.marshal())
	}
	return anyBytes(TypeMsgSend, b)
}

// NewMsgExecuteContract calls contract with msg, a json document.
func NewMsgExecuteContract(sender, contract string, msg []byte, funds []Coin) Msg {
	var b []byte
	b = appendString(b, 1, sender)
	b = appendString(b, 2, contract)
	b = appendBytes(b, 3, msg)
	for _, c := range funds {
		b = appendMessage(b, 5, c.marshal())
	}
	return anyBytes(TypeMsgExecuteContract, b)
}

type cw20Transfer struct {
	Transfer struct {
		Recipient string `json:"recipient"`
		Amount    string `json:"amount"`
	} `json:"transfer"`
}

// Cw20TransferMsg is the execute msg of a cw20 transfer.
func Cw20TransferMsg(recipient, amount string) []byte {
	var m cw20Transfer
	m.Transfer.Recipient = recipient
	m.Transfer.Amount = amount
	raw, _ := json.Marshal(m) // plain strings, cannot fail
	return raw
}

func marshalTxBody(msgs []Msg, memo string) []byte {
	var b []byte
	for _, m := range msgs {
		b = appendMessage(b, 1, m)
	}
	b = appendString(b, 2, memo)
	return b
}

func marshalAuthInfo(pubKey []byte, sequence uint64, fee Coin, gasLimit uint64) []byte {
	var pk []byte
	pk = appendBytes(pk, 1, pubKey)

	var single []byte
	single = appendUvarint(single, 1, signModeDirect)
	var modeInfo []byte
	modeInfo = appendMessage(modeInfo, 1, single)

	var signerInfo []byte
	signerInfo = appendMessage(signerInfo, 1, anyBytes(TypeSecp256k1PubKey, pk))
	signerInfo = appendMessage(signerInfo, 2, modeInfo)
	signerInfo = appendUvarint(signerInfo, 3, sequence)

	var feeBytes []byte
	if fee.Amount != "" && fee.Amount != "0" {
		feeBytes = appendMessage(feeBytes, 1, fee.marshal())
	}
	feeBytes = appendUvarint(feeBytes, 2, gasLimit)

	var b []byte
	b = appendMessage(b, 1, signerInfo)
	b = appendMessage(b, 2, feeBytes)
	return b
}

func marshalSignDoc(bodyBytes, authInfoBytes []byte, chainID string, accountNumber uint64) []byte {
	var b []byte
	b = appendBytes(b, 1, bodyBytes)
	b = appendBytes(b, 2, authInfoBytes)
	b = appendString(b, 3, chainID)
	b = appendUvarint(b, 4, accountNumber)
	return b
}

func marshalTxRaw(bodyBytes, authInfoBytes []byte, signatures ...[]byte) []byte {
	var b []byte
	b = appendBytes(b, 1, bodyBytes)
	b = appendBytes(b, 2, authInfoBytes)
	for _, sig := range signatures {
		// repeated bytes keep empty entries, simulation sends one
		b = appendMessage(b, 3, sig)
	}
	return b
}

// TxHash is the hash the chain indexes txBytes under.
func TxHash(txBytes []byte) string {
	h := sha256.Sum256(txBytes)
	return strings.ToUpper(hex.EncodeToString(h[:]))
}
