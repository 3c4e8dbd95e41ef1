// Copyright © 2024 LearnHub Ltd., or its subsidiaries. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"learnhub-gateway/internal/token"
	"learnhub-gateway/internal/web"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
)

const (
	// HeaderKeyContentType is key for Content-Type
	HeaderKeyContentType = "Content-Type"
	// HeaderValContentTypeJSON is key for application/json
	HeaderValContentTypeJSON = "application/json"
	// headerValContentTypeBinaryOctetStream is key for binary/octet-stream
	headerValContentTypeBinaryOctetStream = "binary/octet-stream"
	// HeaderKeyRequestedWith is key for X-Requested-With
	HeaderKeyRequestedWith = "X-Requested-With"
	// HeaderValRequestedWith marks requests as originating from the client layer
	HeaderValRequestedWith = "XMLHttpRequest"
)

// Client is an API client. Credentials travel via cookies on every call;
// a 401 response transparently triggers the refresh protocol and a single
// retry of the original request.
type Client interface {
	// Get sends an HTTP request using the GET method to the backend.
	Get(
		ctx context.Context,
		path string,
		headers map[string]string,
		query url.Values,
		resp interface{}) error

	// Post sends an HTTP request using the POST method to the backend.
	Post(
		ctx context.Context,
		path string,
		headers map[string]string,
		query url.Values,
		body, resp interface{}) error

	// Put sends an HTTP request using the PUT method to the backend.
	Put(
		ctx context.Context,
		path string,
		headers map[string]string,
		query url.Values,
		body, resp interface{}) error

	// Delete sends an HTTP request using the DELETE method to the backend.
	Delete(
		ctx context.Context,
		path string,
		headers map[string]string,
		query url.Values,
		resp interface{}) error

	// SetCredentials seeds the credential cookies normally set by the
	// backend, for callers that persisted a token pair out of band.
	SetCredentials(pair token.Pair) error
}

type client struct {
	http      *http.Client
	host      string
	refresher *Refresher
	log       *logrus.Entry
}

// ClientOptions are options for the API client.
type ClientOptions struct {
	// Insecure is a flag that indicates whether or not to validate certificates.
	Insecure bool

	// HTTPClient specifies a custom http client for this client.
	HTTPClient *http.Client

	// RefreshTimeout bounds the refresh call. Zero means DefaultRefreshTimeout.
	RefreshTimeout time.Duration
}

// New returns a new API client.
func New(
	ctx context.Context,
	host string,
	log *logrus.Entry,
	opts ClientOptions) (Client, error) {

	if host == "" {
		return nil, fmt.Errorf("host must not be empty")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}

	if opts.Insecure {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	} else if httpClient.Transport == nil {
		pool, err := x509.SystemCertPool()
		if err != nil {
			return nil, err
		}

		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs:            pool,
				InsecureSkipVerify: false,
			},
		}
	}

	c := &client{
		http:      httpClient,
		host:      host,
		refresher: NewRefresher(httpClient, host, opts.RefreshTimeout, log),
		log:       log,
	}

	return c, nil
}

// Get executes a GET request
func (c *client) Get(
	ctx context.Context,
	path string,
	headers map[string]string,
	query url.Values,
	resp interface{}) error {

	return c.DoWithHeaders(
		ctx, http.MethodGet, path, headers, query, nil, resp)
}

// Post executes a POST request
func (c *client) Post(
	ctx context.Context,
	path string,
	headers map[string]string,
	query url.Values,
	body, resp interface{}) error {

	return c.DoWithHeaders(
		ctx, http.MethodPost, path, headers, query, body, resp)
}

// Put executes a PUT request
func (c *client) Put(
	ctx context.Context,
	path string,
	headers map[string]string,
	query url.Values,
	body, resp interface{}) error {

	return c.DoWithHeaders(
		ctx, http.MethodPut, path, headers, query, body, resp)
}

// Delete executes a DELETE request
func (c *client) Delete(
	ctx context.Context,
	path string,
	headers map[string]string,
	query url.Values,
	resp interface{}) error {

	return c.DoWithHeaders(
		ctx, http.MethodDelete, path, headers, query, nil, resp)
}

// SetCredentials stores the supplied token pair in the cookie jar under the
// names the backend uses.
func (c *client) SetCredentials(pair token.Pair) error {
	u, err := url.Parse(c.host)
	if err != nil {
		return err
	}

	c.http.Jar.SetCookies(u, []*http.Cookie{
		{Name: web.AccessTokenCookie, Value: pair.Access, Path: "/"},
		{Name: web.RefreshTokenCookie, Value: pair.Refresh, Path: "/"},
	})
	return nil
}

func beginsWithSlash(s string) bool {
	return len(s) > 0 && s[0] == '/'
}

func endsWithSlash(s string) bool {
	return len(s) > 0 && s[len(s)-1] == '/'
}

// DoWithHeaders executes the request with the supplied headers. An
// unauthorized response on anything but the refresh endpoint triggers one
// refresh-and-retry; a second 401 surfaces as an ordinary error.
func (c *client) DoWithHeaders(
	ctx context.Context,
	method, uri string,
	headers map[string]string,
	query url.Values,
	body, resp interface{}) error {

	res, err := c.DoAndGetResponseBody(
		ctx, method, uri, headers, query, body)
	if err != nil {
		return err
	}

	// Stream bodies are consumed by the first attempt and cannot be
	// replayed on a retry.
	_, isStream := body.(io.ReadCloser)

	if res.StatusCode == http.StatusUnauthorized && !isRefreshPath(uri) && !isStream {
		drain(res)
		if err := c.refresher.Refresh(ctx); err != nil {
			return err
		}
		res, err = c.DoAndGetResponseBody(
			ctx, method, uri, headers, query, body)
		if err != nil {
			return err
		}
	}
	defer res.Body.Close()

	// parse the response
	switch {
	case res.StatusCode >= 200 && res.StatusCode <= 299:
		if resp == nil {
			return nil
		}
		if err := json.NewDecoder(res.Body).Decode(resp); err != nil {
			return err
		}
	default:
		err := c.ParseJSONError(res)
		c.log.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   uri,
		}).Error("api: request failed")
		return err
	}
	return nil
}

// DoAndGetResponseBody executes the request and returns the response body
func (c *client) DoAndGetResponseBody(
	ctx context.Context,
	method, uri string,
	headers map[string]string,
	query url.Values,
	body interface{}) (*http.Response, error) {

	var (
		err                error
		req                *http.Request
		res                *http.Response
		ubf                = &bytes.Buffer{}
		luri               = len(uri)
		hostEndsWithSlash  = endsWithSlash(c.host)
		uriBeginsWithSlash = beginsWithSlash(uri)
	)

	ubf.WriteString(c.host)

	if !hostEndsWithSlash && (luri > 0) {
		ubf.WriteString("/")
	}

	if luri > 0 {
		if uriBeginsWithSlash {
			ubf.WriteString(uri[1:])
		} else {
			ubf.WriteString(uri)
		}
	}

	u, err := url.Parse(ubf.String())
	if err != nil {
		return nil, err
	}

	var isContentTypeSet bool

	// marshal the message body (assumes json format)
	if r, ok := body.(io.ReadCloser); ok {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), r)
		defer r.Close()

		if v, ok := headers[HeaderKeyContentType]; ok {
			req.Header.Set(HeaderKeyContentType, v)
		} else {
			req.Header.Set(
				HeaderKeyContentType, headerValContentTypeBinaryOctetStream)
		}
		isContentTypeSet = true
	} else if body != nil {
		buf := &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		if err = enc.Encode(body); err != nil {
			return nil, err
		}
		req, err = http.NewRequest(method, u.String(), buf)
		if v, ok := headers[HeaderKeyContentType]; ok {
			req.Header.Set(HeaderKeyContentType, v)
		} else {
			req.Header.Set(HeaderKeyContentType, HeaderValContentTypeJSON)
		}
		isContentTypeSet = true
	} else {
		req, err = http.NewRequest(method, u.String(), nil)
	}

	if err != nil {
		return nil, err
	}

	req.Header.Set(HeaderKeyRequestedWith, HeaderValRequestedWith)

	if !isContentTypeSet {
		isContentTypeSet = req.Header.Get(HeaderKeyContentType) != ""
	}

	// add headers to the request
	for header, value := range headers {
		if header == HeaderKeyContentType && isContentTypeSet {
			continue
		}
		req.Header.Add(header, value)
	}

	// add query values to the request
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	// send the request
	req = req.WithContext(ctx)
	if res, err = c.http.Do(req); err != nil {
		return nil, err
	}

	return res, err
}

// ParseJSONError parses the error from the backend. Error bodies are not
// uniform across backend services, so unknown shapes fall back to pulling
// out the first recognizable message field.
func (c *client) ParseJSONError(r *http.Response) error {
	b, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return err
	}

	jsonError := web.JSONError{}
	if err := json.Unmarshal(b, &jsonError); err == nil && jsonError.ErrorMsg != "" {
		if jsonError.Code == 0 {
			jsonError.Code = r.StatusCode
		}
		return jsonError
	}

	var p fastjson.Parser
	if v, err := p.ParseBytes(b); err == nil {
		for _, key := range []string{"message", "error", "detail"} {
			if m := v.GetStringBytes(key); len(m) > 0 {
				return web.JSONError{ErrorMsg: string(m), Code: r.StatusCode}
			}
		}
	}

	return web.JSONError{ErrorMsg: http.StatusText(r.StatusCode), Code: r.StatusCode}
}

func isRefreshPath(uri string) bool {
	return "/"+strings.TrimPrefix(uri, "/") == web.RefreshTokenPath
}

func drain(res *http.Response) {
	_, _ = io.Copy(ioutil.Discard, res.Body)
	_ = res.Body.Close()
}
