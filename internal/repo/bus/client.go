// Package bus is the request/response channel to peer services. Every
// call is a POST of a JSON payload to a route answering with a
// {"success", "data", "error_message"} envelope.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/pkg/ctxval"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Route names of the peer services.
const (
	RouteProfileGet       = "/auth/profile/get"
	RouteProfilesFiltered = "/auth/profile/getProfilesFiltered"
	RouteRelationGet      = "/auth/relation/get"
	RouteRelationAssigned = "/auth/relation/assigned"
	RouteFilesPost        = "/files/post"
	RouteWSSend           = "/ws/send"
	RouteNotifyNewMessage = "/notifications/new-message"
	RouteNotifyArchive    = "/notifications/archive"
)

type Client interface {
	SendAndRead(ctx context.Context, route string, payload any) (*Response, error)
}

// Response is the raw envelope returned by a peer route.
type Response struct {
	Body []byte
}

// Data is the "data" member of the envelope.
func (r *Response) Data() gjson.Result {
	return gjson.GetBytes(r.Body, "data")
}

// Get reads path under "data".
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, "data."+path)
}

// Decode unmarshals the "data" member into v.
func (r *Response) Decode(v any) error {
	data := r.Data()
	if !data.Exists() || data.Type == gjson.Null {
		return nil
	}
	if err := json.Unmarshal([]byte(data.Raw), v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

type client struct {
	http     *resty.Client
	baseURL  string
	settings gobreaker.Settings
	metrics  *prometheus.HistogramVec

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewClient(conf *config.Config) (Client, error) {
	metrics, err := util.GetHistogramVec("peer_requests", "route", "status")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return newClient(conf.Peer, metrics), nil
}

func newClient(conf config.PeerConfig, metrics *prometheus.HistogramVec) *client {
	httpClient := util.NewRestyClient().
		SetRetryCount(conf.RetryCount).
		SetTimeout(conf.Timeout)
	failures := conf.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	return &client{
		http:    httpClient,
		baseURL: conf.BaseURL,
		metrics: metrics,
		settings: gobreaker.Settings{
			MaxRequests: 1,
			Timeout:     conf.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
		},
		breakers: map[string]*gobreaker.CircuitBreaker{},
	}
}

func (c *client) breaker(route string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[route]
	if !ok {
		settings := c.settings
		settings.Name = route
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warnw(context.Background(), "peer circuit breaker state changed",
				"route", name, "from", from.String(), "to", to.String())
		}
		cb = gobreaker.NewCircuitBreaker(settings)
		c.breakers[route] = cb
	}
	return cb
}

func (c *client) SendAndRead(ctx context.Context, route string, payload any) (*Response, error) {
	start := time.Now()
	code := "error"
	defer func() {
		c.metrics.WithLabelValues(route, code).Observe(time.Since(start).Seconds())
	}()

	out, err := c.breaker(route).Execute(func() (interface{}, error) {
		req := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(payload)
		if id := ctxval.RequestID(ctx); id != "" {
			req.SetHeader("x-request-id", id)
		}
		res, err := req.Post(c.baseURL + route)
		if err != nil {
			return nil, fmt.Errorf("post %s: %w", route, err)
		}
		code = strconv.Itoa(res.StatusCode())
		if res.StatusCode() >= http.StatusInternalServerError {
			return nil, status.Errorf(codes.Unavailable, "peer %s: status %d", route, res.StatusCode())
		}
		return &Response{Body: res.Body()}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, status.Errorf(codes.Unavailable, "peer %s: %s", route, err)
		}
		return nil, err
	}

	resp := out.(*Response)
	if ok := gjson.GetBytes(resp.Body, "success"); ok.Exists() && !ok.Bool() {
		msg := gjson.GetBytes(resp.Body, "error_message").String()
		return nil, status.Errorf(codes.FailedPrecondition, "peer %s: %s", route, msg)
	}
	return resp, nil
}
