// Reader is a testing facility to talk to a running faucet.

package reporter

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

type HttpReader struct {
	baseURL string // http://ip:port
	client  *http.Client
}

func NewHttpReader(baseURL string) *HttpReader {
	return &HttpReader{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
}

// Response is a decoded faucet reply.
type Response struct {
	StatusCode int
	RetryAfter string
	Body       map[string]any
}

func (hr *HttpReader) do(req *http.Request) (*Response, error) {
	resp, err := hr.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	out := &Response{StatusCode: resp.StatusCode, RetryAfter: resp.Header.Get("Retry-After")}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Body); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (hr *HttpReader) GetHello() (string, error) {
	resp, err := hr.client.Get(hr.baseURL + ROUTE_HELLO)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (hr *HttpReader) Mint(name string, receiver string) (*Response, error) {
	payload, err := json.Marshal(mintBody{Receiver: receiver})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, hr.baseURL+"/v1/mint/"+name, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return hr.do(req)
}

func (hr *HttpReader) GetRequest(id string) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, hr.baseURL+"/v1/mint/requests/"+id, nil)
	if err != nil {
		return nil, err
	}
	return hr.do(req)
}
