package terraman

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrBroadcast   = errors.New("broadcast rejected")
	ErrLCDResponse = errors.New("unexpected LCD response")
)

const (
	broadcastSync   = "BROADCAST_MODE_SYNC"
	maxResponseSize = 4 << 20
)

// LCD is a minimal client of the cosmos-sdk REST gateway.
type LCD struct {
	baseURL string
	client  *http.Client
}

func NewLCD(baseURL string, client *http.Client) *LCD {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &LCD{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type lcdError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (l *LCD) do(ctx context.Context, method, endpoint string, body, response interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, l.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.WithFields(logger.Fields{"method": method, "endpoint": endpoint}).Debug("lcd request")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	}
	if resp.StatusCode >= 400 {
		var e lcdError
		if json.Unmarshal(respBody, &e) == nil && e.Message != "" {
			// grpc NotFound surfaces as code 5 on some gateways
			if e.Code == 5 {
				return fmt.Errorf("%w: %s", ErrNotFound, e.Message)
			}
			return fmt.Errorf("%w: status %d: %s", ErrLCDResponse, resp.StatusCode, e.Message)
		}
		return fmt.Errorf("%w: status %d, body: %s", ErrLCDResponse, resp.StatusCode, string(respBody))
	}

	if response != nil {
		if err := json.Unmarshal(respBody, response); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// Account is the part of an auth account needed for signing.
type Account struct {
	AccountNumber uint64
	Sequence      uint64
}

// uint64 fields come as json strings from the gateway
type accountResponse struct {
	Account struct {
		Type          string `json:"@type"`
		AccountNumber string `json:"account_number"`
		Sequence      string `json:"sequence"`
		// vesting accounts nest the base account
		BaseVestingAccount *struct {
			BaseAccount struct {
				AccountNumber string `json:"account_number"`
				Sequence      string `json:"sequence"`
			} `json:"base_account"`
		} `json:"base_vesting_account,omitempty"`
	} `json:"account"`
}

func parseUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func (l *LCD) Account(ctx context.Context, address string) (*Account, error) {
	var resp accountResponse
	if err := l.do(ctx, http.MethodGet, "/cosmos/auth/v1beta1/accounts/"+address, nil, &resp); err != nil {
		return nil, err
	}

	numStr, seqStr := resp.Account.AccountNumber, resp.Account.Sequence
	if bva := resp.Account.BaseVestingAccount; bva != nil {
		numStr, seqStr = bva.BaseAccount.AccountNumber, bva.BaseAccount.Sequence
	}
	num, err := parseUint(numStr)
	if err != nil {
		return nil, fmt.Errorf("%w: account_number %q", ErrLCDResponse, numStr)
	}
	seq, err := parseUint(seqStr)
	if err != nil {
		return nil, fmt.Errorf("%w: sequence %q", ErrLCDResponse, seqStr)
	}
	return &Account{AccountNumber: num, Sequence: seq}, nil
}

type TxResponse struct {
	Height string `json:"height"`
	TxHash string `json:"txhash"`
	Code   uint32 `json:"code"`
	RawLog string `json:"raw_log"`
}

type txResponseEnvelope struct {
	TxResponse *TxResponse `json:"tx_response"`
}

// Broadcast submits txBytes in sync mode: the response reflects CheckTx only.
func (l *LCD) Broadcast(ctx context.Context, txBytes []byte) (*TxResponse, error) {
	body := map[string]string{
		"tx_bytes": base64.StdEncoding.EncodeToString(txBytes),
		"mode":     broadcastSync,
	}
	var resp txResponseEnvelope
	if err := l.do(ctx, http.MethodPost, "/cosmos/tx/v1beta1/txs", body, &resp); err != nil {
		return nil, err
	}
	if resp.TxResponse == nil {
		return nil, fmt.Errorf("%w: missing tx_response", ErrLCDResponse)
	}
	if resp.TxResponse.Code != 0 {
		return resp.TxResponse, fmt.Errorf("%w: code %d: %s", ErrBroadcast, resp.TxResponse.Code, resp.TxResponse.RawLog)
	}
	return resp.TxResponse, nil
}

type simulateResponse struct {
	GasInfo struct {
		GasUsed string `json:"gas_used"`
	} `json:"gas_info"`
}

func (l *LCD) Simulate(ctx context.Context, txBytes []byte) (uint64, error) {
	body := map[string]string{"tx_bytes": base64.StdEncoding.EncodeToString(txBytes)}
	var resp simulateResponse
	if err := l.do(ctx, http.MethodPost, "/cosmos/tx/v1beta1/simulate", body, &resp); err != nil {
		return 0, err
	}
	gas, err := parseUint(resp.GasInfo.GasUsed)
	if err != nil || gas == 0 {
		return 0, fmt.Errorf("%w: gas_used %q", ErrLCDResponse, resp.GasInfo.GasUsed)
	}
	return gas, nil
}

// GetTx returns nil, nil while the tx is not indexed yet.
func (l *LCD) GetTx(ctx context.Context, txHash string) (*TxResponse, error) {
	var resp txResponseEnvelope
	err := l.do(ctx, http.MethodGet, "/cosmos/tx/v1beta1/txs/"+txHash, nil, &resp)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.TxResponse, nil
}
