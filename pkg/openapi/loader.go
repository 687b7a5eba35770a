package openapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/erraggy/oastools/oaserrors"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/hashicorp/go-version"
)

// SupportedVersions is the constraint applied to the "openapi" field.
const SupportedVersions = ">= 3.0.0, < 4.0.0"

var readSource = openapi3.ReadFromURIs(openapi3.ReadFromHTTP(http.DefaultClient), openapi3.ReadFromFile)

// ReadSource reads the raw document bytes from a local file path or an HTTP(S) URL
func ReadSource(input string) ([]byte, error) {
	loader := openapi3.NewLoader()
	data, err := readSource(loader, sourceURL(input))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", input, err)
	}
	return data, nil
}

// LoadDocument reads, parses and version-checks an OpenAPI document
func LoadDocument(input string) (*Document, error) {
	data, err := ReadSource(input)
	if err != nil {
		return nil, err
	}
	return LoadDocumentFromData(data, input)
}

// LoadDocumentFromData parses and version-checks an already-read document
func LoadDocumentFromData(data []byte, source string) (*Document, error) {
	doc, err := Parse(data, source)
	if err != nil {
		return nil, err
	}
	if err := CheckVersion(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CheckVersion rejects documents that are not OpenAPI 3.x.
func CheckVersion(doc *Document) error {
	raw := doc.Version()
	if raw == "" {
		if sw := StringValue(doc.Root(), "swagger"); sw != "" {
			return &oaserrors.ValidationError{
				Path:    "$",
				Field:   "swagger",
				Value:   sw,
				Message: "Swagger 2.0 documents are not supported, convert to OpenAPI 3 first",
			}
		}
		return &oaserrors.ValidationError{Path: "$", Field: "openapi", Message: "missing OpenAPI version"}
	}

	v, err := version.NewVersion(raw)
	if err != nil {
		return &oaserrors.ValidationError{Path: "$", Field: "openapi", Value: raw, Message: "invalid version", Cause: err}
	}
	constraints, err := version.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !constraints.Check(v) {
		return &oaserrors.ValidationError{
			Path:    "$",
			Field:   "openapi",
			Value:   raw,
			Message: "unsupported OpenAPI version, want " + SupportedVersions,
		}
	}
	return nil
}

// ValidateDocument validates an OpenAPI document
func ValidateDocument(ctx context.Context, input string) error {
	data, err := ReadSource(input)
	if err != nil {
		return err
	}
	return ValidateData(ctx, data)
}

// ValidateData runs kin-openapi's structural validation over raw document bytes.
func ValidateData(ctx context.Context, data []byte) error {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return &oaserrors.ParseError{Message: "failed to load document for validation", Cause: err}
	}
	if err := doc.Validate(loader.Context); err != nil {
		return &oaserrors.ValidationError{Path: "$", Message: "document is not a valid OpenAPI description", Cause: err}
	}
	return nil
}

func sourceURL(input string) *url.URL {
	// Try to parse as URL; if it looks like http(s), fetch via URL
	if u, err := url.Parse(input); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return u
	}
	// Fallback to the filesystem path as-is
	return &url.URL{Path: input}
}
