// Package lookup provides the external directory clients for ASN enrichment
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	perr "logcrunch/internal/platform/errors"
)

// DefaultPeeringDBBase is the public PeeringDB API root
const DefaultPeeringDBBase = "https://www.peeringdb.com"

// PeeringDB resolves AS names through PeeringDB's as_set endpoint
type PeeringDB struct {
	http *http.Client
	base string
}

// NewPeeringDB builds a directory client. A zero timeout means no timeout
func NewPeeringDB(base string, timeout time.Duration) *PeeringDB {
	if base == "" {
		base = DefaultPeeringDBBase
	}
	return &PeeringDB{http: &http.Client{Timeout: timeout}, base: base}
}

// ASName implements domain.Directory.
// The as_set endpoint answers {"data": [{"<asn>": "<as-set name>", ...}]};
// the entry keyed by the queried ASN is the one we want
func (c *PeeringDB) ASName(ctx context.Context, asn uint32) (string, error) {
	url := fmt.Sprintf("%s/api/as_set/%d", c.base, asn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "build request for ASN %d", asn)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "directory request for ASN %d", asn)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", perr.Unavailablef("directory request for ASN %d: HTTP %d", asn, resp.StatusCode)
	}

	var payload struct {
		Data []map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeDecode, "directory response for ASN %d", asn)
	}

	key := strconv.FormatUint(uint64(asn), 10)
	for _, entry := range payload.Data {
		if name, ok := entry[key]; ok {
			return name, nil
		}
	}
	return "", perr.NotFoundf("no directory entry for ASN %d", asn)
}
