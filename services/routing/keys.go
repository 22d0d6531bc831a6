package routing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelplane/router/models"
)

// Sentinel values used when optional request fields are absent, so the
// key shape stays fixed.
const (
	defaultTaskType = "chat"
	defaultStep     = "none"
)

// contextAllowList names the only top-level context fields that may
// influence the cache key. Free-form caller context must never leak into
// the key space.
var contextAllowList = []string{"tenant_id", "session_id", "task_hint", "capability_hints"}

// requestMetadataAllowList restricts the nested "request_metadata" object
var requestMetadataAllowList = []string{"correlation_id", "session_id", "tenant_id"}

// BuildCacheKey derives a deterministic cache key from the routing-relevant
// projection of the request. Two requests differing only in non-allow-listed
// context produce the same key.
func BuildCacheKey(req *models.RouteRequest) string {
	taskType := req.TaskType
	if taskType == "" {
		taskType = defaultTaskType
	}
	step := req.KHRPStep
	if step == "" {
		step = defaultStep
	}

	reqHash := shortHash(canonicalize(req.Requirements))
	queryHash := shortHash(normalizeQuery(req.Query) + "|" + taskType)
	ctxHash := shortHash(canonicalize(contextSignature(req.Context)))

	return strings.Join([]string{req.UserID, taskType, step, reqHash, queryHash, ctxHash}, ":")
}

// NewCorrelationID returns a fresh correlation identifier for decision logs
func NewCorrelationID() string {
	return uuid.NewString()
}

// normalizeQuery lowercases, trims, and collapses internal whitespace so
// cosmetic query differences hash identically
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// contextSignature projects the allow-listed subset of the caller context.
// Absent keys are omitted, never defaulted, so presence itself is part of
// the signature.
func contextSignature(ctx map[string]any) map[string]any {
	if len(ctx) == 0 {
		return nil
	}

	sig := make(map[string]any)
	for _, key := range contextAllowList {
		if v, ok := ctx[key]; ok {
			sig[key] = v
		}
	}

	if meta, ok := ctx["request_metadata"].(map[string]any); ok {
		restricted := make(map[string]any)
		for _, key := range requestMetadataAllowList {
			if v, ok := meta[key]; ok {
				restricted[key] = v
			}
		}
		if len(restricted) > 0 {
			sig["request_metadata"] = restricted
		}
	}

	if len(sig) == 0 {
		return nil
	}
	return sig
}

// canonicalize serializes a value deterministically. json.Marshal writes
// map keys in sorted order; values it cannot serialize degrade to fmt's
// representation, which is also key-sorted for maps.
func canonicalize(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
