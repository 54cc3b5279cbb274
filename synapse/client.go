// Package synapse implements the small subset of the Synapse REST API used to validate data
// access requests: user lookup, team membership, team invitations and messaging.
//
// API reference: https://rest-docs.synapse.org/rest/
package synapse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultRepoEndpoint = "https://repo-prod.prod.sagebase.org/repo/v1"
	DefaultFileEndpoint = "https://repo-prod.prod.sagebase.org/file/v1"
	DefaultTimeout      = 30 * time.Second

	pageSize = 50
)

// Client is a Synapse REST API client authenticated with a personal access token.
type Client struct {
	repo   string
	file   string
	http   *http.Client
	upload *http.Client
}

type Options struct {
	RepoEndpoint string
	FileEndpoint string
	Timeout      time.Duration
}

// NewClient returns a client that authenticates every Synapse request with the access token
// as a bearer token. Presigned upload URLs are requested without the token.
func NewClient(token string, opts Options) *Client {
	if opts.RepoEndpoint == "" {
		opts.RepoEndpoint = DefaultRepoEndpoint
	}

	if opts.FileEndpoint == "" {
		opts.FileEndpoint = DefaultFileEndpoint
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	base := &http.Client{
		Timeout:   opts.Timeout,
		Transport: newTransport(),
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: strings.TrimSpace(token),
		TokenType:   "Bearer",
	}))
	authed.Timeout = opts.Timeout

	return &Client{
		repo:   strings.TrimRight(opts.RepoEndpoint, "/"),
		file:   strings.TrimRight(opts.FileEndpoint, "/"),
		http:   authed,
		upload: base,
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
}

func (c *Client) get(ctx context.Context, url string, reply any) error {
	return c.do(ctx, http.MethodGet, url, nil, reply)
}

func (c *Client) post(ctx context.Context, url string, request, reply any) error {
	return c.do(ctx, http.MethodPost, url, request, reply)
}

func (c *Client) put(ctx context.Context, url string, request, reply any) error {
	return c.do(ctx, http.MethodPut, url, request, reply)
}

func (c *Client) do(ctx context.Context, method, url string, request, reply any) error {
	var body io.Reader
	if request != nil {
		b, err := json.Marshal(request)
		if err != nil {
			return err
		}

		body = bytes.NewReader(b)
	}

	rq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}

	rq.Header.Set("Accept", "application/json")
	if request != nil {
		rq.Header.Set("Content-Type", "application/json")
	}

	response, err := c.http.Do(rq)
	if err != nil {
		return err
	}

	defer response.Body.Close()

	if response.StatusCode/100 != 2 {
		return newHTTPError(method, url, response)
	}

	if reply == nil {
		_, err := io.Copy(io.Discard, response.Body)
		return err
	}

	if err := json.NewDecoder(response.Body).Decode(reply); err != nil {
		return fmt.Errorf("invalid response from %v %v (%w)", method, url, err)
	}

	return nil
}
