package fastly

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlexBool_Table(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{`true`, true, false},
		{`false`, false, false},
		{`"1"`, true, false},
		{`"0"`, false, false},
		{`1`, true, false},
		{`0`, false, false},
		{`2`, false, true},
		{`-1`, false, true},
		{`"2"`, false, true},
		{`"yes"`, false, true},
		{`1.5`, false, true},
	}
	for _, tc := range tests {
		var v flexBool
		err := json.Unmarshal([]byte(tc.in), &v)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("flexBool(%s): expected error, got %v", tc.in, v)
			}
			continue
		}
		if err != nil {
			t.Fatalf("flexBool(%s): %v", tc.in, err)
		}
		if bool(v) != tc.want {
			t.Fatalf("flexBool(%s) = %v, want %v", tc.in, v, tc.want)
		}
	}
}

func TestFlexInt_Table(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{`64512`, 64512, false},
		{`"64512"`, 64512, false},
		{`" 3 "`, 3, false},
		{`0`, 0, false},
		{`"abc"`, 0, true},
		{`3.5`, 0, true},
	}
	for _, tc := range tests {
		var v flexInt
		err := json.Unmarshal([]byte(tc.in), &v)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("flexInt(%s): expected error, got %d", tc.in, v)
			}
			continue
		}
		if err != nil {
			t.Fatalf("flexInt(%s): %v", tc.in, err)
		}
		if int64(v) != tc.want {
			t.Fatalf("flexInt(%s) = %d, want %d", tc.in, v, tc.want)
		}
	}
}

func TestFlexTime_EquivalentEncodings(t *testing.T) {
	want := time.Unix(1700000000, 0).UTC() // 2023-11-14T22:13:20Z

	encodings := []string{
		`1700000000`,
		`"1700000000"`,
		`"Tue, 14 Nov 2023 22:13:20 +0000"`, // RFC 2822 numeric zone
		`"Tue, 14 Nov 2023 22:13:20 UTC"`,   // RFC 2822 named zone
		`"2023-11-14T22:13:20Z"`,            // RFC 3339
	}
	for _, in := range encodings {
		var v flexTime
		if err := json.Unmarshal([]byte(in), &v); err != nil {
			t.Fatalf("flexTime(%s): %v", in, err)
		}
		if !time.Time(v).Equal(want) {
			t.Fatalf("flexTime(%s) = %v, want %v", in, time.Time(v), want)
		}
		if time.Time(v).Location() != time.UTC {
			t.Fatalf("flexTime(%s) not normalized to UTC", in)
		}
	}
}

func TestFlexTime_RejectsOtherStrings(t *testing.T) {
	for _, in := range []string{`"14/11/2023"`, `"soon"`, `"2023-11-14"`} {
		var v flexTime
		if err := json.Unmarshal([]byte(in), &v); err == nil {
			t.Fatalf("flexTime(%s): expected error, got %v", in, time.Time(v))
		}
	}
}

func TestLogLine_Record(t *testing.T) {
	raw := `{
		"clientIP": "1.2.3.4",
		"ispID": "64512",
		"countryCode": "US",
		"requests": "3",
		"isIPv6": "0",
		"isH2": "1",
		"urlPath": "/x",
		"httpReferer": "",
		"httpUA": "ua",
		"cacheState": "HIT",
		"respStatus": "200",
		"respTotalBytes": "512",
		"timeElapsed": "1500",
		"reqStartTime": "1700000000"
	}`

	var line logLine
	if err := json.Unmarshal([]byte(raw), &line); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rec, err := line.record()
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if got := rec.IPv4String(); got != "1.2.3.4" {
		t.Fatalf("IPv4String = %q", got)
	}
	if got := rec.IPv6String(); got != "" {
		t.Fatalf("IPv6String = %q, want empty for a v4 client", got)
	}
	if rec.ASN != 64512 {
		t.Fatalf("ASN = %d", rec.ASN)
	}
	if rec.CountryCode == nil || *rec.CountryCode != "US" {
		t.Fatalf("CountryCode = %v", rec.CountryCode)
	}
	if rec.IPv6 || !rec.HTTP2 {
		t.Fatalf("flags = ipv6:%v http2:%v, want false/true", rec.IPv6, rec.HTTP2)
	}
	if rec.Referer == nil || *rec.Referer != "" {
		t.Fatalf("empty referer should survive as an empty value, got %v", rec.Referer)
	}
	if rec.ResponseDuration != 1500*time.Millisecond {
		t.Fatalf("ResponseDuration = %v, want 1.5s", rec.ResponseDuration)
	}
	if !rec.RequestStart.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("RequestStart = %v", rec.RequestStart)
	}
}

func TestLogLine_Record_V6Client(t *testing.T) {
	var line logLine
	raw := `{"clientIP":"2001:db8::1","ispID":1,"requests":1,"isIPv6":true,"isH2":false,
		"urlPath":"/","cacheState":"MISS","respStatus":200,"respTotalBytes":0,
		"timeElapsed":10,"reqStartTime":1700000000}`
	if err := json.Unmarshal([]byte(raw), &line); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rec, err := line.record()
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.IPv4String() != "" || rec.IPv6String() != "2001:db8::1" {
		t.Fatalf("v6 split = (%q, %q)", rec.IPv4String(), rec.IPv6String())
	}
	if rec.Referer != nil || rec.UserAgent != nil {
		t.Fatalf("missing optional fields should be nil")
	}
}

func TestLogLine_Record_BadIP(t *testing.T) {
	var line logLine
	if err := json.Unmarshal([]byte(`{"clientIP":"not-an-ip"}`), &line); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := line.record(); err == nil {
		t.Fatalf("expected error for bad client IP")
	}
}
