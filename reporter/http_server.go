// This is the http face of the faucet.
// It validates and admits mint requests, hands them to the dispatcher
// and publishes the mint journal.

package reporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/admission"
	"github.com/TEENet-io/faucet-go/agreement"
	"github.com/TEENet-io/faucet-go/chaintxmgrdb"
	"github.com/TEENet-io/faucet-go/common"
	"github.com/TEENet-io/faucet-go/registry"
)

const (
	ROUTE_HELLO   = "/hello"
	ROUTE_MINT    = "/v1/mint/:name"
	ROUTE_REQUEST = "/v1/mint/requests/:id"
	ROUTE_ASSETS  = "/v1/assets"
	ROUTE_METRICS = "/metrics"
)

// Client facing messages.
const (
	msgMissingField    = "Missing 'name' or 'receiver' field."
	msgInvalidClientIP = "Invalid client IP address."
	msgInvalidReceiver = "Missing or invalid 'receiver' field."
	msgRateLimitIP     = "Rate limit exceeded for this IP. Try again later."
	msgRateLimitAddr   = "Rate limit exceeded for this address. Try again later."
	msgInternal        = "Internal server error."
	msgTooManyRequests = "Too many requests. Slow down."
)

type Admitter interface {
	Admit(ctx context.Context, asset, client, dest string, now time.Time) (admission.Decision, *admission.Ticket, error)
	RetryAfter(ctx context.Context, d admission.Decision, asset, client, dest string, now time.Time) time.Duration
}

type Dispatcher interface {
	Dispatch(req *agreement.MintRequest, ticket *admission.Ticket)
}

type AssetCatalog interface {
	Lookup(name string) (registry.Capability, bool)
	Names() []string
}

type MintLookup interface {
	GetByRequestId(requestId string) (*chaintxmgrdb.MonitoredMint, error)
}

type HttpReporterConfig struct {
	ServerIP   string // listen ip
	ServerPort string // listen port

	// Proxies whose X-Forwarded-For is believed. Empty trusts none.
	TrustedProxies []string

	// Per client burst guard, BurstRPS <= 0 disables it.
	BurstRPS  float64
	BurstSize int
}

// Backend is what the reporter serves. Journal, Metrics and Throttle may be nil.
type Backend struct {
	Admission  Admitter
	Dispatcher Dispatcher
	Assets     AssetCatalog
	Addresses  common.AddressValidator
	Journal    MintLookup
	Metrics    http.Handler
	Throttle   *Throttle
}

type HttpReporter struct {
	cfg *HttpReporterConfig
	Backend

	now func() time.Time
}

func NewHttpReporter(cfg *HttpReporterConfig, backend Backend) *HttpReporter {
	if backend.Throttle == nil && cfg.BurstRPS > 0 {
		backend.Throttle = NewThrottle(cfg.BurstRPS, cfg.BurstSize)
	}
	return &HttpReporter{
		cfg:     cfg,
		Backend: backend,
		now:     time.Now,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Logger(), gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Errorf("panic in http handler: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}))

	if err := router.SetTrustedProxies(h.cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	mint := []gin.HandlerFunc{}
	if h.Throttle != nil {
		mint = append(mint, h.Throttle.Middleware())
	}
	mint = append(mint, h.Mint)

	router.GET(ROUTE_HELLO, Hello)
	router.POST(ROUTE_MINT, mint...)
	router.GET(ROUTE_ASSETS, h.ListAssets)
	if h.Journal != nil {
		router.GET(ROUTE_REQUEST, h.GetRequest)
	}
	if h.Metrics != nil {
		router.GET(ROUTE_METRICS, gin.WrapH(h.Metrics))
	}

	return router, nil
}

// Handler is the router behind an allow all CORS policy.
func (h *HttpReporter) Handler() (http.Handler, error) {
	router, err := h.SetupRouter()
	if err != nil {
		return nil, err
	}
	return cors.AllowAll().Handler(router), nil
}

// Run serves until ctx is cancelled, then drains open requests.
func (h *HttpReporter) Run(ctx context.Context) error {
	handler, err := h.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(h.cfg.ServerIP, h.cfg.ServerPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("address", srv.Addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Example route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

type mintBody struct {
	Receiver string `json:"receiver"`
}

// Mint admits the request and answers at once, the tx runs in the background.
func (h *HttpReporter) Mint(c *gin.Context) {
	name := c.Param("name")

	var body mintBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(c, name, fmt.Errorf("%w: %w: %v", admission.ErrInvalidRequest, admission.ErrInvalidReceiver, err))
		return
	}

	clientIP := c.ClientIP()
	if err := admission.ValidateRequest(name, body.Receiver, clientIP, h.Addresses); err != nil {
		h.writeError(c, name, err)
		return
	}

	if _, ok := h.Assets.Lookup(name); !ok {
		h.writeError(c, name, admission.ErrUnknownAsset)
		return
	}

	ctx := c.Request.Context()
	now := h.now()
	d, ticket, err := h.Admission.Admit(ctx, name, clientIP, body.Receiver, now)
	if err != nil {
		h.writeError(c, name, err)
		return
	}
	if d != admission.Admitted {
		h.writeError(c, name, &admission.RateLimitError{
			Decision:   d,
			RetryAfter: h.Admission.RetryAfter(ctx, d, name, clientIP, body.Receiver, now),
		})
		return
	}

	req := &agreement.MintRequest{
		Id:       uuid.NewString(),
		Asset:    name,
		Receiver: body.Receiver,
		ClientIP: clientIP,
	}
	h.Dispatcher.Dispatch(req, ticket)

	logger.WithFields(logger.Fields{"id": req.Id, "asset": name, "receiver": body.Receiver}).Info("mint request accepted")
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("Mint request for %s accepted.", body.Receiver),
		"requestId": req.Id,
	})
}

func (h *HttpReporter) writeError(c *gin.Context, name string, err error) {
	var rl *admission.RateLimitError
	switch {
	case errors.As(err, &rl):
		if rl.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
		}
		msg := msgRateLimitIP
		if rl.Decision == admission.RejectedRateLimitDestination {
			msg = msgRateLimitAddr
		}
		c.JSON(http.StatusTooManyRequests, gin.H{"error": msg})
	case errors.Is(err, admission.ErrMissingField):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingField})
	case errors.Is(err, admission.ErrInvalidClientIP):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidClientIP})
	case errors.Is(err, admission.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidReceiver})
	case errors.Is(err, admission.ErrUnknownAsset):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No handler for '%s'", name)})
	default:
		logger.WithField("asset", name).Errorf("failed to handle mint request: err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

func (h *HttpReporter) ListAssets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"assets": h.Assets.Names()})
}

type mintView struct {
	Id        string    `json:"id"`
	Asset     string    `json:"asset"`
	Receiver  string    `json:"receiver"`
	TxHash    string    `json:"txHash,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Fetch data from the mint journal
// Publish on the route
func (h *HttpReporter) GetRequest(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id."})
		return
	}

	m, err := h.Journal.GetByRequestId(id)
	if err != nil {
		logger.WithField("id", id).Errorf("failed to read mint journal: err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No mint request '%s'", id)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": mintView{
		Id:        m.RequestId,
		Asset:     m.Asset,
		Receiver:  m.Receiver,
		TxHash:    m.TxHash,
		Status:    string(m.Status),
		Error:     m.Error,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}})
}
