package buckets

import (
	"net/http"

	activitydomain "buckety-go/internal/domain/activity"
	"buckety-go/internal/localstore"
	"buckety-go/internal/storage"
	commonhandler "buckety-go/internal/transport/httpserver/handler/common"
	"buckety-go/internal/transport/httpserver/middleware"
	"github.com/shopspring/decimal"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	commonhandler.WriteError(w, status, code, message)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return commonhandler.DecodeJSON(r, dst)
}

func parseIntParam(value string, fallback int) (int, error) {
	return commonhandler.ParseIntParam(value, fallback)
}

func parseBoolParam(value string, fallback bool) (bool, error) {
	return commonhandler.ParseBoolParam(value, fallback)
}

func parseDecimalParam(value string) (*decimal.Decimal, error) {
	return commonhandler.ParseDecimalParam(value)
}

func userIDFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		commonhandler.WriteUnauthorized(w)
		return "", false
	}
	return userID, true
}

func findBucket(snapshot storage.Snapshot, bucketID string) (localstore.CachedBucket, bool) {
	for _, bucket := range snapshot.Buckets {
		if bucket.ID == bucketID {
			return bucket, true
		}
	}
	return localstore.CachedBucket{}, false
}

func isMainBucket(bucketID string) bool {
	return bucketID == activitydomain.MainBucketID
}
