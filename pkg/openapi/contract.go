// Package openapi holds the OpenAPI description of the Up API endpoints
// upctl calls and checks outbound requests against it.
package openapi

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed up.yaml
var upSpec []byte

// Contract is the embedded Up API description bound to a base URL.
type Contract struct {
	doc    *openapi3.T
	router routers.Router
}

// Operation summarises one documented endpoint.
type Operation struct {
	ID     string
	Method string
	Path   string
}

// LoadSpec parses and validates an OpenAPI 3 document.
func LoadSpec(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	return doc, nil
}

// LoadContract loads the embedded Up API document and routes requests sent
// to baseURL against it.
func LoadContract(baseURL string) (*Contract, error) {
	doc, err := LoadSpec(upSpec)
	if err != nil {
		return nil, err
	}

	if baseURL != "" {
		doc.Servers = openapi3.Servers{{URL: strings.TrimSuffix(baseURL, "/")}}
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}

	return &Contract{doc: doc, router: router}, nil
}

// Operations lists the documented endpoints sorted by path.
func (c *Contract) Operations() []Operation {
	var ops []Operation
	for path, item := range c.doc.Paths.Map() {
		for method, op := range item.Operations() {
			ops = append(ops, Operation{ID: op.OperationID, Method: method, Path: path})
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Method < ops[j].Method
	})

	return ops
}

// ValidateRequest checks that req targets a documented operation and that
// its path and query parameters satisfy the document.
func (c *Contract) ValidateRequest(req *http.Request) error {
	route, pathParams, err := c.router.FindRoute(req)
	if err != nil {
		return fmt.Errorf("no Up API operation for %s %s: %w", req.Method, req.URL.Path, err)
	}

	ctx := req.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
	}
	if err := openapi3filter.ValidateRequest(ctx, input); err != nil {
		return fmt.Errorf("request does not match the Up API: %w", err)
	}

	return nil
}

// Transport returns a round tripper that rejects requests failing
// ValidateRequest before they reach base.
func (c *Contract) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &validatingTransport{contract: c, base: base}
}

type validatingTransport struct {
	contract *Contract
	base     http.RoundTripper
}

func (t *validatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.contract.ValidateRequest(req); err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	return t.base.RoundTrip(req)
}
