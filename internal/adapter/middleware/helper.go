package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"nftloan-backend/pkg/id"
)

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

func buildKey(method, path, caller, requestID string) string {
	return "idemp:nftloan:" + strings.ToLower(method) + ":" + path + ":" + caller + ":" + requestID
}

// validReqID accepts a canonical lowercase RFC 4122 uuid (versions 1-5) or a
// 32 char hex id as produced by id.New.
func validReqID(s string) bool {
	if id.Valid(s) {
		return true
	}
	if len(s) != 36 || s != strings.ToLower(s) {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return u.Variant() == uuid.RFC4122 && u.Version() >= 1 && u.Version() <= 5
}

// normalizeCaller returns the checksummed form of a hex account address so
// that differently cased headers share one idempotency key.
func normalizeCaller(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return "", false
	}
	addr := common.HexToAddress(raw)
	if addr == (common.Address{}) {
		return "", false
	}
	return addr.Hex(), true
}

// parseRequestAt accepts:
//   - epoch seconds (e.g., "1736123456")
//   - epoch milliseconds (e.g., "1736123456789")
//   - RFC3339 / RFC3339Nano with a zone (e.g., "2025-09-05T10:00:00+07:00" or "...Z")
//
// Naive timestamps without a zone are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}

// ---- Redis helpers ----
func provisionalSet(ctx context.Context, rdb *redis.Client, key string, entry idempEntry) (bool, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (idempEntry, error) {
	var e idempEntry
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(v, &e); err != nil {
		return idempEntry{}, err
	}
	return e, nil
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, entry idempEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}

func release(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err()
}
