package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Coord holds a latitude or longitude value that upstream may serialize as a
// JSON number, a numeric string, or null. Unparseable input leaves Valid
// false rather than failing the whole record set.
type Coord struct {
	Value float64
	Valid bool
}

// UnmarshalJSON accepts numbers, quoted numbers, and null. It never returns
// an error: a coordinate we cannot read is simply invalid.
func (c *Coord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Coord{}
		return nil
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*c = Coord{}
		return nil
	}
	*c = Coord{Value: v, Valid: true}
	return nil
}

// MarshalJSON writes the value, or null when invalid.
func (c Coord) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// RawRecord is one report as served by GET /api/reports. Owned by the
// collaborator backend; read-only input to normalization.
type RawRecord struct {
	ID          int     `json:"id"`
	UploaderID  int     `json:"uploader_id"`
	Uploader    string  `json:"uploader"`
	Category    string  `json:"category"`
	Status      string  `json:"status"` // "verified" or "unverified"
	Description string  `json:"description"`
	ImagePath   string  `json:"image_path"`
	VideoPath   string  `json:"video_path"`
	Latitude    Coord   `json:"latitude"`
	Longitude   Coord   `json:"longitude"`
	Volume      float64 `json:"volume,omitempty"`
	Date        string  `json:"date,omitempty"` // issue date, YYYY-MM-DD
}

// GeoPoint is a normalized, validated hazard observation. Immutable after
// creation; each poll produces a wholly new slice.
type GeoPoint struct {
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Category    Category  `json:"category"`
	Weight      float64   `json:"weight"`
	Verified    bool      `json:"verified"`
	Description string    `json:"description,omitempty"`
	Place       string    `json:"place,omitempty"`
	ReportedAt  time.Time `json:"reported_at,omitzero"`
}

// FeedStatus describes the live data source state machine:
// Idle → Loading → {Ready, Error}, re-entering Loading on each refresh.
type FeedStatus int

const (
	FeedIdle FeedStatus = iota
	FeedLoading
	FeedReady
	FeedError
)

func (s FeedStatus) String() string {
	switch s {
	case FeedIdle:
		return "idle"
	case FeedLoading:
		return "loading"
	case FeedReady:
		return "ready"
	case FeedError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the status as its lowercase name.
func (s FeedStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Snapshot is an immutable, timestamped view of the latest fetched and
// normalized data set. Consumers must not mutate Points; the source replaces
// the whole snapshot on every refresh.
type Snapshot struct {
	Points    []GeoPoint
	FetchedAt time.Time
	Status    FeedStatus
	Err       error // last fetch error, set only when Status == FeedError
}

// Stale reports whether the snapshot carries last-good data after a failed
// refresh. The UI shows a staleness indicator instead of blanking the map.
func (s Snapshot) Stale() bool {
	return s.Status == FeedError && len(s.Points) > 0
}
