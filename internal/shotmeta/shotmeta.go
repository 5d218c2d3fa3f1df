// Package shotmeta stores the key-value metadata attached to live shots.
package shotmeta

import (
	"strconv"
	"sync"
)

type value struct {
	s     string
	i     int
	isInt bool
}

// Store keeps metadata per shot GUID until the shot is cleared.
type Store struct {
	mu    sync.RWMutex
	shots map[uint32]map[string]value
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		shots: make(map[uint32]map[string]value),
	}
}

func (s *Store) set(guid uint32, key string, v value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.shots[guid]
	if !ok {
		m = make(map[string]value)
		s.shots[guid] = m
	}
	m[key] = v
}

func (s *Store) get(guid uint32, key string) (value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.shots[guid][key]
	return v, ok
}

// SetShotMetaDataS stores a string value.
func (s *Store) SetShotMetaDataS(guid uint32, key, v string) {
	s.set(guid, key, value{s: v})
}

// SetShotMetaDataI stores an integer value.
func (s *Store) SetShotMetaDataI(guid uint32, key string, v int) {
	s.set(guid, key, value{i: v, isInt: true})
}

// ShotMetaDataS returns the value as a string, formatting integers.
func (s *Store) ShotMetaDataS(guid uint32, key string) string {
	v, ok := s.get(guid, key)
	if !ok {
		return ""
	}
	if v.isInt {
		return strconv.Itoa(v.i)
	}
	return v.s
}

// ShotMetaDataI returns the value as an integer. Strings that do not parse read as 0.
func (s *Store) ShotMetaDataI(guid uint32, key string) int {
	v, ok := s.get(guid, key)
	if !ok {
		return 0
	}
	if v.isInt {
		return v.i
	}
	n, err := strconv.Atoi(v.s)
	if err != nil {
		return 0
	}
	return n
}

// ShotHasMetaData reports whether key is set on the shot.
func (s *Store) ShotHasMetaData(guid uint32, key string) bool {
	_, ok := s.get(guid, key)
	return ok
}

// Snapshot returns the metadata of a shot formatted as strings.
func (s *Store) Snapshot(guid uint32) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.shots[guid]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v.isInt {
			out[k] = strconv.Itoa(v.i)
		} else {
			out[k] = v.s
		}
	}
	return out
}

// Clear drops all metadata of a shot.
func (s *Store) Clear(guid uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shots, guid)
}

// Len returns the number of shots carrying metadata.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shots)
}
