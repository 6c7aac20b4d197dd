package model

import "time"

// Source identifies which data path produced a snapshot.
type Source string

// Data source states.
const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Remote reports whether the source is the remote backend.
func (s Source) Remote() bool { return s == SourceRemote }

// Snapshot is the complete, internally consistent dataset published to
// consumers. A snapshot is immutable after publication; a new version
// replaces it wholesale, never field by field.
type Snapshot struct {
	Version         uint64           `json:"version"` // monotonically increasing
	Source          Source           `json:"source"`
	GeneratedAt     time.Time        `json:"generatedAt"`
	Users           []User           `json:"users"`
	SelectedUserID  string           `json:"selectedUserId"`
	Recommendations []Recommendation `json:"recommendations"`
	Segments        []SegmentStat    `json:"segments"`
	Cities          []CityCount      `json:"cities"`
	Hourly          []HourlyPoint    `json:"hourly"`
	Weekly          []WeeklyPoint    `json:"weekly"`
}

// EmptySnapshot returns a zero-population snapshot with non-nil collections
// so consumers always render a consistent shape.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Source:          SourceLocal,
		GeneratedAt:     time.Now().UTC(),
		Users:           []User{},
		Recommendations: []Recommendation{},
		Segments:        []SegmentStat{},
		Cities:          []CityCount{},
		Hourly:          []HourlyPoint{},
		Weekly:          []WeeklyPoint{},
	}
}

// WithSelection derives a new snapshot from s with an updated selection and
// recommendation list. Aggregate collections are shared, not copied; they are
// read-only after publication.
func (s *Snapshot) WithSelection(version uint64, userID string, recs []Recommendation) *Snapshot {
	next := *s
	next.Version = version
	next.GeneratedAt = time.Now().UTC()
	next.SelectedUserID = userID
	next.Recommendations = recs
	return &next
}

// UserByID scans the population for id. Linear; callers on hot paths should
// use the repository index instead.
func (s *Snapshot) UserByID(id string) (User, bool) {
	for i := range s.Users {
		if s.Users[i].UserID == id {
			return s.Users[i], true
		}
	}
	return User{}, false
}
