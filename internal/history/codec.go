package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/hejijunhao/kimo/internal/model"
)

// record is the stored shape of a SessionEntry.
type record struct {
	ID        string          `json:"id"`
	Type      model.EntryType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func encode(entries []model.SessionEntry) (string, error) {
	recs := make([]record, len(entries))
	for i, e := range entries {
		body, err := sonic.Marshal(e.Payload)
		if err != nil {
			return "", fmt.Errorf("history: marshal %s payload: %w", e.Type, err)
		}
		recs[i] = record{ID: e.ID, Type: e.Type, Timestamp: e.Timestamp, Payload: body}
	}
	out, err := sonic.MarshalString(recs)
	if err != nil {
		return "", fmt.Errorf("history: marshal: %w", err)
	}
	return out, nil
}

// decode parses a stored log. Any malformed record fails the whole decode.
func decode(s string) ([]model.SessionEntry, error) {
	var recs []record
	if err := sonic.UnmarshalString(s, &recs); err != nil {
		return nil, err
	}
	entries := make([]model.SessionEntry, 0, len(recs))
	for i, r := range recs {
		p, err := decodePayload(r.Type, r.Payload)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		entries = append(entries, model.SessionEntry{
			ID:        r.ID,
			Type:      r.Type,
			Timestamp: r.Timestamp,
			Payload:   p,
		})
	}
	return entries, nil
}

func decodePayload(t model.EntryType, raw json.RawMessage) (model.Payload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing payload for %q", t)
	}
	switch t {
	case model.EntryImage:
		var p model.ImagePayload
		err := sonic.Unmarshal(raw, &p)
		return p, err
	case model.EntryHandwriting:
		var p model.HandwritingPayload
		err := sonic.Unmarshal(raw, &p)
		return p, err
	case model.EntryText:
		var p model.TextPayload
		err := sonic.Unmarshal(raw, &p)
		return p, err
	case model.EntryDrawing:
		var p model.DrawingPayload
		err := sonic.Unmarshal(raw, &p)
		return p, err
	case model.EntrySearch:
		var p model.SearchPayload
		err := sonic.Unmarshal(raw, &p)
		return p, err
	case model.EntryAI:
		var p model.AIPayload
		err := sonic.Unmarshal(raw, &p)
		return p, err
	default:
		return nil, fmt.Errorf("unknown entry type %q", t)
	}
}
