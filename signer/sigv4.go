package signer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gaborage/aws-bricks/transport"
)

const (
	algorithm       = "AWS4-HMAC-SHA256"
	requestSuffix   = "aws4_request"
	amzDateFormat   = "20060102T150405Z"
	dateStampLayout = "20060102"

	headerHost          = "Host"
	headerAmzDate       = "X-Amz-Date"
	headerSecurityToken = "X-Amz-Security-Token"
	headerAuthorization = "Authorization"
)

// V4 implements AWS Signature Version 4 with static credentials.
type V4 struct {
	creds  Credentials
	region string
	now    func() time.Time
}

// Ensure V4 implements the interface
var _ Signer = (*V4)(nil)

// NewV4 creates a SigV4 signer for the given credentials and region.
func NewV4(creds Credentials, region string) *V4 {
	return &V4{creds: creds, region: region, now: time.Now}
}

// Sign derives the signed header set for one attempt. The returned slice
// is a fresh copy; the input headers are not mutated.
func (s *V4) Sign(_ context.Context, in *SigningInput) (transport.Headers, error) {
	if s.creds.AccessKeyID == "" || s.creds.SecretAccessKey == "" {
		return nil, fmt.Errorf("sigv4: missing credentials")
	}
	if s.region == "" {
		return nil, fmt.Errorf("sigv4: region is required")
	}
	if in.Service == "" {
		return nil, fmt.Errorf("sigv4: service is required")
	}

	u, err := url.Parse(in.URL)
	if err != nil {
		return nil, fmt.Errorf("sigv4: invalid url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("sigv4: url has no host")
	}

	t := in.Time
	if t.IsZero() {
		t = s.now()
	}
	t = t.UTC()
	amzDate := t.Format(amzDateFormat)
	dateStamp := t.Format(dateStampLayout)

	headers := s.buildHeaderSet(in.Headers, u.Host, amzDate)

	payloadHash := hashHex(in.Body)
	canonicalHeaders, signedHeaders := canonicalizeHeaders(headers)
	canonicalRequest := strings.Join([]string{
		in.Method,
		canonicalURI(u),
		canonicalQuery(u),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := strings.Join([]string{dateStamp, s.region, in.Service, requestSuffix}, "/")
	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		scope,
		hashHex([]byte(canonicalRequest)),
	}, "\n")

	signature := hex.EncodeToString(hmacSHA256(s.signingKey(dateStamp, in.Service), stringToSign))

	authorization := fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, s.creds.AccessKeyID, scope, signedHeaders, signature)

	return append(headers, transport.Header{Name: headerAuthorization, Value: authorization}), nil
}

// buildHeaderSet copies the caller's headers, dropping any stale
// signing-related entries, and appends Host, X-Amz-Date and the session
// token header when temporary credentials are in use.
func (s *V4) buildHeaderSet(in transport.Headers, host, amzDate string) transport.Headers {
	out := make(transport.Headers, 0, len(in)+4)
	for _, h := range in {
		switch strings.ToLower(h.Name) {
		case "host", "x-amz-date", "x-amz-security-token", "authorization":
			continue
		}
		out = append(out, h)
	}
	out = append(out,
		transport.Header{Name: headerHost, Value: host},
		transport.Header{Name: headerAmzDate, Value: amzDate},
	)
	if s.creds.SessionToken != "" {
		out = append(out, transport.Header{Name: headerSecurityToken, Value: s.creds.SessionToken})
	}
	return out
}

func (s *V4) signingKey(dateStamp, service string) []byte {
	key := hmacSHA256([]byte("AWS4"+s.creds.SecretAccessKey), dateStamp)
	key = hmacSHA256(key, s.region)
	key = hmacSHA256(key, service)
	return hmacSHA256(key, requestSuffix)
}

func canonicalURI(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		return "/"
	}
	return path
}

// canonicalQuery sorts query parameters and re-encodes them with RFC 3986
// escaping. url.Values.Encode is close but escapes spaces as "+", which
// SigV4 rejects.
func canonicalQuery(u *url.URL) string {
	query := u.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		values := query[k]
		sort.Strings(values)
		for _, v := range values {
			parts = append(parts, escapeRFC3986(k)+"="+escapeRFC3986(v))
		}
	}
	return strings.Join(parts, "&")
}

func escapeRFC3986(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// canonicalizeHeaders returns the canonical header block (each line
// "name:value\n", names lowercased, values trimmed, sorted by name) and
// the semicolon-joined signed-headers list.
func canonicalizeHeaders(headers transport.Headers) (canonical, signed string) {
	byName := make(map[string][]string, len(headers))
	names := make([]string, 0, len(headers))
	for _, h := range headers {
		name := strings.ToLower(h.Name)
		if _, seen := byName[name]; !seen {
			names = append(names, name)
		}
		byName[name] = append(byName[name], trimAll(h.Value))
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.Join(byName[name], ","))
		b.WriteByte('\n')
	}
	return b.String(), strings.Join(names, ";")
}

// trimAll trims surrounding whitespace and collapses internal runs of
// spaces, as required by the canonicalization rules.
func trimAll(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
