// Package audit keeps a security trail of authentication events in
// Elasticsearch: login outcomes, token rotations, replay rejections and
// reset redemptions. Indexing is best-effort and never fails a request;
// a Trail without a client records nothing.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/forgesite/auth-service/pkg/logging"
)

type Trail struct {
	es    *elasticsearch.Client
	index string
}

func New(es *elasticsearch.Client, index string) *Trail {
	return &Trail{es: es, index: index}
}

// Record indexes one event document. Token values must never be passed
// in fields; callers log hashes or user ids only.
func (t *Trail) Record(ctx context.Context, event string, fields map[string]any) {
	if t == nil || t.es == nil {
		return
	}

	doc := map[string]any{
		"event": event,
		"at":    time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range fields {
		doc[k] = v
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		logging.FromContext(ctx).Error("audit encode failed", "event", event, "error", err)
		return
	}

	res, err := t.es.Index(t.index, &buf, t.es.Index.WithContext(ctx))
	if err != nil {
		logging.FromContext(ctx).Error("audit index failed", "event", event, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		logging.FromContext(ctx).Error("audit index failed", "event", event, "status", res.Status())
	}
}
