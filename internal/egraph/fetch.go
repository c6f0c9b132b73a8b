// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package egraph

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/pdiddy/egraph-extract/internal/httputil"
	"github.com/pdiddy/egraph-extract/pkg/types"
)

// IsURL reports whether source names an http or https location.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch downloads a graph document and decodes it. URLs whose path ends in
// .hcl use the HCL layout; everything else is egraph-serialize JSON or YAML.
func Fetch(ctx context.Context, client *http.Client, rawURL string, cfg types.HTTPConfig, opts LoadOptions) (*Graph, error) {
	data, err := httputil.Get(ctx, client, rawURL, cfg)
	if err != nil {
		return nil, err
	}

	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = u.Path
	}
	if strings.EqualFold(path.Ext(name), ".hcl") {
		return DecodeHCL(data, path.Base(name), opts)
	}
	return Decode(bytes.NewReader(data))
}
