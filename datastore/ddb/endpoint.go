/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"net/url"
)

// Endpoint is a parsed dynamodb:// connection string:
//
//	dynamodb://<region>?endpoint=<url>&access_key=<id>&secret_key=<secret>
//
// Without keys the default AWS credential chain is used.
type Endpoint struct {
	Region    string
	URL       string
	AccessKey string
	SecretKey string
}

// ParseEndpoint parses a dynamodb:// connection string.
func ParseEndpoint(raw string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "dynamodb" {
		return Endpoint{}, fmt.Errorf("invalid endpoint scheme %q, expected dynamodb", u.Scheme)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("endpoint %q names no region", raw)
	}

	q := u.Query()
	ep := Endpoint{
		Region:    u.Host,
		URL:       q.Get("endpoint"),
		AccessKey: q.Get("access_key"),
		SecretKey: q.Get("secret_key"),
	}
	if (ep.AccessKey == "") != (ep.SecretKey == "") {
		return Endpoint{}, fmt.Errorf("endpoint needs both access_key and secret_key")
	}
	return ep, nil
}

// String returns the endpoint without credentials.
func (e Endpoint) String() string {
	if e.URL != "" {
		return "dynamodb://" + e.Region + "?endpoint=" + e.URL
	}
	return "dynamodb://" + e.Region
}
