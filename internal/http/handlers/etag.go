package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// respondCatalogList writes a catalog listing with a strong ETag derived
// from the encoded body. The dashboard polls these lists, so a matching
// If-None-Match gets a bodiless 304.
func respondCatalogList[T any](ctx *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}

	body, err := json.Marshal(items)
	if err != nil {
		RespondInternal(ctx, "Could not encode response", err)
		return
	}

	etag := listETag(body)

	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "no-cache")

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// first 16 bytes of the digest are plenty for change detection
func listETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		// weak comparison: W/"x" matches "x"
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}
