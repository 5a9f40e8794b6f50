package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/importgroups-backend/api/responses"
	pkgerrors "github.com/angelmondragon/importgroups-backend/pkg/errors"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/importgroups-backend/pkg/redis"
)

const (
	idempotencyHeader   = "Idempotency-Key"
	replayedHeader      = "Idempotent-Replayed"
	originRequestHeader = "X-Original-Request-Id"

	defaultIdempotencyTTL = 24 * time.Hour
	demoIdempotencyTTL    = 10 * time.Minute
)

// idempotentRoute matches a POST path segment by segment; "*" matches any one segment.
type idempotentRoute struct {
	segments []string
	ttl      time.Duration
}

var idempotentRoutes = []idempotentRoute{
	{segments: strings.Split("api/v1/me/groups", "/"), ttl: defaultIdempotencyTTL},
	{segments: strings.Split("api/v1/me/groups/*/join", "/"), ttl: defaultIdempotencyTTL},
	{segments: strings.Split("api/v1/demo/seed", "/"), ttl: demoIdempotencyTTL},
}

func (r idempotentRoute) matches(path string) bool {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != len(r.segments) {
		return false
	}
	for i, seg := range r.segments {
		if seg != "*" && seg != parts[i] {
			return false
		}
	}
	return true
}

func idempotencyTTL(method, path string) (time.Duration, bool) {
	if method != http.MethodPost {
		return 0, false
	}
	for _, route := range idempotentRoutes {
		if route.matches(path) {
			return route.ttl, true
		}
	}
	return 0, false
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
	RequestHash string `json:"request_hash"`
	RequestID   string `json:"request_id,omitempty"`
}

// Idempotency replays the stored response when a client repeats an
// Idempotency-Key on a group-creating route. Keys are scoped to the caller and
// path. 5xx responses are never stored so the client can retry them.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := idempotencyTTL(r.Method, r.URL.Path)
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if !guarded || store == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := bodyHash(body)
			key := store.IdempotencyKey(UserIDFromContext(ctx)+"|"+r.URL.Path, clientKey)

			raw, err := store.Get(ctx, key)
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key"))
				return
			default:
				var prior storedResponse
				if err := json.Unmarshal([]byte(raw), &prior); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
					return
				}
				if prior.RequestHash != hash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				replay(w, prior)
				return
			}

			capture := &bodyCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)
			if capture.status >= http.StatusInternalServerError {
				return
			}

			payload, err := json.Marshal(storedResponse{
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.buf.Bytes()),
				RequestHash: hash,
				RequestID:   RequestIDFromContext(ctx),
			})
			if err == nil {
				_, err = store.SetNX(ctx, key, string(payload), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(logg.WithField(ctx, "idempotency_key", clientKey), "idempotency.store_failed", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, prior storedResponse) {
	if prior.ContentType != "" {
		w.Header().Set("Content-Type", prior.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	if prior.RequestID != "" {
		w.Header().Set(originRequestHeader, prior.RequestID)
	}
	w.WriteHeader(prior.Status)
	if body, err := base64.StdEncoding.DecodeString(prior.Body); err == nil {
		_, _ = w.Write(body)
	}
}

func bodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.RawStdEncoding.EncodeToString(sum[:])
}

// bodyCapture tees the downstream response so it can be stored.
type bodyCapture struct {
	http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
}

func (c *bodyCapture) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *bodyCapture) Write(b []byte) (int, error) {
	c.wroteHeader = true
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}
