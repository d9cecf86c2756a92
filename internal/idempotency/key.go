package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// RawKey builds the human-readable key. A client token, when given, replaces the
// parameters entirely. userID is always part of the key so two users sending the
// same parameters never collide.
//
// Every caller-supplied part is query-escaped, so a value containing '&', '='
// or ':' cannot be read back as a different set of parameters.
func RawKey(userID, operation, clientToken string, params map[string]string) string {
	prefix := url.QueryEscape(userID) + ":" + operation + ":"
	if clientToken != "" {
		return prefix + "t:" + url.QueryEscape(clientToken)
	}

	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, k := range names {
		pairs[i] = url.QueryEscape(k) + "=" + url.QueryEscape(params[k])
	}
	return prefix + "p:" + strings.Join(pairs, "&")
}

// DeriveKey hashes RawKey to a fixed-length store key.
func DeriveKey(userID, operation, clientToken string, params map[string]string) string {
	sum := sha256.Sum256([]byte(RawKey(userID, operation, clientToken, params)))
	return operation + ":" + hex.EncodeToString(sum[:])
}
