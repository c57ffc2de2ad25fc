package booster

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/ramonehamilton/booster-companion/internal/clock"
)

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 1

// ErrUnreadable is returned when a stored timer record cannot be decoded.
var ErrUnreadable = errors.New("timer record unreadable")

// Record is the persisted timer state.
type Record struct {
	Version       int     `json:"version"`
	FreeBoosters  int     `json:"freeBoosters"`
	LastGrantTime float64 `json:"lastGrantTime"`
}

// RecordV0 is the unversioned legacy timer record.
type RecordV0 struct {
	Boosters        int     `json:"boosters"`
	LastBoosterDate float64 `json:"lastBoosterDate"`
}

// Encode serializes the state in the current schema.
func Encode(state State) ([]byte, error) {
	data, err := json.Marshal(Record{
		Version:       CurrentVersion,
		FreeBoosters:  state.FreeBoosters,
		LastGrantTime: clock.ToUnixSeconds(state.LastGrantTime),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode timer: %w", err)
	}
	return data, nil
}

// Decode parses a stored timer record of any known version. The returned version
// is the one found in storage.
func Decode(data []byte) (State, int, error) {
	if len(data) == 0 {
		return State{}, 0, fmt.Errorf("%w: empty payload", ErrUnreadable)
	}

	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return State{}, 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var rec Record
	version := 0
	if probe.Version != nil {
		version = *probe.Version
	}

	switch version {
	case 0:
		var v0 struct {
			Boosters        *int     `json:"boosters"`
			LastBoosterDate *float64 `json:"lastBoosterDate"`
		}
		if err := json.Unmarshal(data, &v0); err != nil || v0.Boosters == nil || v0.LastBoosterDate == nil {
			return State{}, 0, fmt.Errorf("%w: incomplete v0 record", ErrUnreadable)
		}
		rec = MigrateV0ToV1(RecordV0{Boosters: *v0.Boosters, LastBoosterDate: *v0.LastBoosterDate})
	case CurrentVersion:
		var v1 struct {
			FreeBoosters  *int     `json:"freeBoosters"`
			LastGrantTime *float64 `json:"lastGrantTime"`
		}
		if err := json.Unmarshal(data, &v1); err != nil || v1.FreeBoosters == nil || v1.LastGrantTime == nil {
			return State{}, version, fmt.Errorf("%w: incomplete v1 record", ErrUnreadable)
		}
		rec = Record{Version: CurrentVersion, FreeBoosters: *v1.FreeBoosters, LastGrantTime: *v1.LastGrantTime}
	default:
		return State{}, version, fmt.Errorf("%w: unsupported version %d", ErrUnreadable, version)
	}

	state := State{
		FreeBoosters:  rec.FreeBoosters,
		LastGrantTime: clock.FromUnixSeconds(rec.LastGrantTime),
	}
	if state.FreeBoosters < 0 {
		log.Printf("[BoosterTimer] Clamping negative stored booster count %d to 0", state.FreeBoosters)
		state.FreeBoosters = 0
	}
	return state, version, nil
}

// MigrateV0ToV1 renames the legacy fields.
func MigrateV0ToV1(v0 RecordV0) Record {
	return Record{
		Version:       CurrentVersion,
		FreeBoosters:  v0.Boosters,
		LastGrantTime: v0.LastBoosterDate,
	}
}
