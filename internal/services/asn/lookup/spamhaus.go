package lookup

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	perr "logcrunch/internal/platform/errors"
	"logcrunch/internal/platform/logger"
)

// DefaultDropListURL is the public Spamhaus ASN-DROP feed
const DefaultDropListURL = "https://www.spamhaus.org/drop/asndrop.json"

// Spamhaus fetches the "don't route or peer" ASN list
type Spamhaus struct {
	http *http.Client
	url  string
}

// NewSpamhaus builds a drop-list client. A zero timeout means no timeout
func NewSpamhaus(url string, timeout time.Duration) *Spamhaus {
	if url == "" {
		url = DefaultDropListURL
	}
	return &Spamhaus{http: &http.Client{Timeout: timeout}, url: url}
}

// Fetch implements domain.DropList.
// The feed is a stream of JSON values: entries {"asn":N,"asname":"..."} mixed
// with metadata records carrying the copyright notice, which Spamhaus asks
// consumers to surface. It goes to the log, never to the database
func (c *Spamhaus) Fetch(ctx context.Context) (map[uint32]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build drop list request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "drop list request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, perr.Unavailablef("drop list request: HTTP %d", resp.StatusCode)
	}

	out := make(map[uint32]string)
	dec := json.NewDecoder(resp.Body)
	for {
		var entry struct {
			ASN       uint32 `json:"asn"`
			ASName    string `json:"asname"`
			Copyright string `json:"copyright"`
		}
		if err := dec.Decode(&entry); err == io.EOF {
			break
		} else if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDecode, "drop list entry")
		}
		switch {
		case entry.ASN != 0:
			out[entry.ASN] = entry.ASName
		case entry.Copyright != "":
			logger.C(ctx).Info().Str("copyright", entry.Copyright).Msg("drop list data attribution")
		}
	}
	return out, nil
}
