// Package feed serves the ranked post feed with keyset pagination over the
// five-field ranking key.
package feed

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"townsquare/internal/ranking"
)

// CursorVersion is the current cursor payload format.
const CursorVersion = 1

// ErrInvalidCursor is returned for cursors that cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor kinds. Feed cursors carry no kind for compatibility with tokens
// already handed out.
const (
	kindFeed  = ""
	kindSaved = "saved"
)

// TimeKey orders rows by creation time then id, newest first.
type TimeKey struct {
	At time.Time
	ID uint
}

type cursorPayload struct {
	V  int    `json:"v"`
	K  string `json:"k,omitempty"`
	P  bool   `json:"p"`
	T  int    `json:"t"`
	R  int    `json:"r"`
	TS string `json:"ts"`
	ID uint   `json:"id"`
}

// EncodeCursor serializes a ranking key into an opaque token.
func EncodeCursor(k ranking.Key) string {
	payload := cursorPayload{
		V:  CursorVersion,
		P:  k.Pinned,
		T:  k.TagPriority,
		R:  k.RolePriority,
		TS: k.PublishedAt.UTC().Format(time.RFC3339Nano),
		ID: k.ID,
	}
	// Marshal of a flat struct of scalars cannot fail.
	raw, _ := json.Marshal(payload)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by EncodeCursor. Every failure wraps
// ErrInvalidCursor.
func DecodeCursor(token string) (ranking.Key, error) {
	payload, ts, err := decodePayload(token, kindFeed)
	if err != nil {
		return ranking.Key{}, err
	}
	if payload.T < 0 || payload.R < 0 {
		return ranking.Key{}, fmt.Errorf("%w: negative priority", ErrInvalidCursor)
	}

	return ranking.Key{
		Pinned:       payload.P,
		TagPriority:  payload.T,
		RolePriority: payload.R,
		PublishedAt:  ts,
		ID:           payload.ID,
	}, nil
}

// EncodeSavedCursor serializes the position in a saved-posts list.
func EncodeSavedCursor(k TimeKey) string {
	raw, _ := json.Marshal(cursorPayload{
		V:  CursorVersion,
		K:  kindSaved,
		TS: k.At.UTC().Format(time.RFC3339Nano),
		ID: k.ID,
	})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeSavedCursor parses a token produced by EncodeSavedCursor. Feed
// cursors are rejected.
func DecodeSavedCursor(token string) (TimeKey, error) {
	payload, ts, err := decodePayload(token, kindSaved)
	if err != nil {
		return TimeKey{}, err
	}
	return TimeKey{At: ts, ID: payload.ID}, nil
}

func decodePayload(token, kind string) (cursorPayload, time.Time, error) {
	var payload cursorPayload
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return payload, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if payload.V != CursorVersion {
		return payload, time.Time{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidCursor, payload.V)
	}
	if payload.K != kind {
		return payload, time.Time{}, fmt.Errorf("%w: wrong cursor kind %q", ErrInvalidCursor, payload.K)
	}
	if payload.ID == 0 || payload.TS == "" {
		return payload, time.Time{}, fmt.Errorf("%w: incomplete key", ErrInvalidCursor)
	}
	ts, err := time.Parse(time.RFC3339Nano, payload.TS)
	if err != nil {
		return payload, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return payload, ts.UTC(), nil
}
