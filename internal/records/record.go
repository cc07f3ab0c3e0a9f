// Package records holds the wire-level vocabulary shared by the remote
// stores and the reconciliation layer: the opaque key-value record, the known
// record types (two pin schemas, comments, group members), store routing, and
// the pure mapping between records and canonical entities.
package records

import "time"

// Known record types. TypePin is the current pin schema; TypeLegacyPin is the
// older shape still present in the stores, with different color and photo
// field conventions. Both are queried on every feed refresh.
const (
	TypePin         = "Pin"
	TypeLegacyPin   = "LegacyPin"
	TypeComment     = "Comment"
	TypeGroupMember = "GroupMember"
)

// StoreKind designates one of the two logical stores.
type StoreKind string

const (
	StorePrivate StoreKind = "private"
	StorePublic  StoreKind = "public"
)

// RouteStore returns the store a pin-shaped record belongs to. Pins that
// carry a group go to the shared public store so other members can see them;
// personal pins stay in the private store. Visibility to other users depends
// on this rule, so callers must not route around it.
func RouteStore(groupID string) StoreKind {
	if groupID != "" {
		return StorePublic
	}
	return StorePrivate
}

// Record is one opaque remote record: a server-side identity, a record type
// tag, the store's own creation metadata, and an open field set. Field values
// survive a JSON round trip, so numbers read back as float64.
type Record struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"createdAt"`
	Fields    map[string]any `json:"fields"`
}

// PendingWrite is a retry-queue item: the payload exactly as constructed at
// write time, the store it routes to, and the placeholder ID of the feed
// entry it must reconcile once a retry succeeds.
type PendingWrite struct {
	PlaceholderID string    `json:"placeholderId"`
	Store         StoreKind `json:"store"`
	Record        Record    `json:"record"`
}

// stringField returns a non-empty string field.
func (r Record) stringField(key string) (string, bool) {
	v, ok := r.Fields[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// intField tolerates the numeric types a JSON or driver round trip produces.
func (r Record) intField(key string) (int, bool) {
	switch v := r.Fields[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func (r Record) floatField(key string) (float64, bool) {
	switch v := r.Fields[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// timeField accepts both native time values and RFC 3339 strings.
func (r Record) timeField(key string) (time.Time, bool) {
	switch v := r.Fields[key].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// coordinate resolves a record's location: the structured "location" field
// first, then separate "latitude"/"longitude" fields.
func (r Record) coordinate() (lat, lon float64, ok bool) {
	if loc, found := r.Fields["location"].(map[string]any); found {
		nested := Record{Fields: loc}
		lat, latOK := nested.floatField("latitude")
		lon, lonOK := nested.floatField("longitude")
		if latOK && lonOK {
			return lat, lon, true
		}
	}

	lat, latOK := r.floatField("latitude")
	lon, lonOK := r.floatField("longitude")
	if latOK && lonOK {
		return lat, lon, true
	}
	return 0, 0, false
}
