package fastly

import (
	"encoding/json"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// LogRecord is one decoded access-log line. Immutable after decode
type LogRecord struct {
	ClientIP         netip.Addr
	ASN              uint32
	CountryCode      *string
	Requests         int64
	IPv6             bool
	HTTP2            bool
	URLPath          string
	Referer          *string
	UserAgent        *string
	CacheState       string
	Status           int
	ResponseBytes    int64
	ResponseDuration time.Duration
	RequestStart     time.Time
}

// IPv4String returns the dotted form when the client address is v4, else ""
func (r LogRecord) IPv4String() string {
	if r.ClientIP.Is4() || r.ClientIP.Is4In6() {
		return r.ClientIP.Unmap().String()
	}
	return ""
}

// IPv6String returns the textual form when the client address is v6, else ""
func (r LogRecord) IPv6String() string {
	if r.ClientIP.Is4() || r.ClientIP.Is4In6() {
		return ""
	}
	return r.ClientIP.String()
}

// logLine is the wire shape. Older log configurations quoted every value,
// newer ones emit native JSON types; the flex wrappers absorb both
type logLine struct {
	ClientIP      string   `json:"clientIP"`
	ASN           flexInt  `json:"ispID"`
	CountryCode   *string  `json:"countryCode"`
	Requests      flexInt  `json:"requests"`
	IPv6          flexBool `json:"isIPv6"`
	HTTP2         flexBool `json:"isH2"`
	URLPath       string   `json:"urlPath"`
	Referer       *string  `json:"httpReferer"`
	UserAgent     *string  `json:"httpUA"`
	CacheState    string   `json:"cacheState"`
	Status        flexInt  `json:"respStatus"`
	ResponseBytes flexInt  `json:"respTotalBytes"`
	ElapsedMS     flexInt  `json:"timeElapsed"`
	RequestStart  flexTime `json:"reqStartTime"`
}

// record validates the wire shape into a LogRecord
func (l logLine) record() (LogRecord, error) {
	ip, err := netip.ParseAddr(strings.TrimSpace(l.ClientIP))
	if err != nil {
		return LogRecord{}, fmt.Errorf("clientIP %q: %w", l.ClientIP, err)
	}
	if l.ASN < 0 || int64(l.ASN) > math.MaxUint32 {
		return LogRecord{}, fmt.Errorf("ispID %d out of 32-bit range", int64(l.ASN))
	}
	return LogRecord{
		ClientIP:         ip,
		ASN:              uint32(l.ASN),
		CountryCode:      l.CountryCode,
		Requests:         int64(l.Requests),
		IPv6:             bool(l.IPv6),
		HTTP2:            bool(l.HTTP2),
		URLPath:          l.URLPath,
		Referer:          l.Referer,
		UserAgent:        l.UserAgent,
		CacheState:       l.CacheState,
		Status:           int(l.Status),
		ResponseBytes:    int64(l.ResponseBytes),
		ResponseDuration: time.Duration(l.ElapsedMS) * time.Millisecond,
		RequestStart:     time.Time(l.RequestStart),
	}, nil
}

// flexInt decodes a JSON number or a numeric string
type flexInt int64

func (v *flexInt) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("numeric string %q: %w", s, err)
		}
		*v = flexInt(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = flexInt(n)
	return nil
}

// flexBool decodes a JSON bool, a "0"/"1" string, or a 0/1 number.
// Anything else is a decode error
type flexBool bool

func (v *flexBool) UnmarshalJSON(b []byte) error {
	switch {
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		switch strings.TrimSpace(s) {
		case "0":
			*v = false
		case "1":
			*v = true
		default:
			return fmt.Errorf("boolean string %q: want \"0\" or \"1\"", s)
		}
		return nil
	case string(b) == "true":
		*v = true
		return nil
	case string(b) == "false":
		*v = false
		return nil
	default:
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		switch n {
		case 0:
			*v = false
		case 1:
			*v = true
		default:
			return fmt.Errorf("boolean number %d: want 0 or 1", n)
		}
		return nil
	}
}

// timestamp text formats observed in the wild, tried in order
var startTimeLayouts = []string{
	time.RFC1123Z, // RFC 2822 with numeric zone
	time.RFC1123,  // RFC 2822 with zone name
	time.RFC3339,
}

// flexTime decodes a request-start timestamp from an epoch-seconds number,
// an epoch-seconds string, or one of startTimeLayouts. Always UTC
type flexTime time.Time

func (v *flexTime) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			*v = flexTime(time.Unix(secs, 0).UTC())
			return nil
		}
		for _, layout := range startTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				*v = flexTime(t.UTC())
				return nil
			}
		}
		return fmt.Errorf("timestamp %q: not epoch seconds, RFC 2822, or RFC 3339", s)
	}
	var secs int64
	if err := json.Unmarshal(b, &secs); err != nil {
		return err
	}
	*v = flexTime(time.Unix(secs, 0).UTC())
	return nil
}
