package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"tradehub/internal/domain"
)

// ErrTrackExists is returned by AddTrack when the track is already listed.
var ErrTrackExists = errors.New("track already exists")

// TrackList is the on-disk shape of the tracks file:
//
//	{"tracks": [{"asset_type": "stock", "ticker": "AAPL", "resolution": "1d"}]}
type TrackList struct {
	Tracks []domain.Track `json:"tracks"`
}

// LoadTracks reads the tracks file. A missing file yields an empty list.
func LoadTracks(path string) ([]domain.Track, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Track{}, nil
	}
	if err != nil {
		return nil, err
	}

	var list TrackList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i, t := range list.Tracks {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%s: track %d: %w", path, i, err)
		}
	}
	if list.Tracks == nil {
		list.Tracks = []domain.Track{}
	}
	return list.Tracks, nil
}

// SaveTracks writes tracks to path, replacing the file atomically.
func SaveTracks(path string, tracks []domain.Track) error {
	if tracks == nil {
		tracks = []domain.Track{}
	}
	data, err := json.MarshalIndent(TrackList{Tracks: tracks}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// AddTrack validates t and appends it to the tracks file, returning
// ErrTrackExists if an identical track is already listed.
func AddTrack(path string, t domain.Track) ([]domain.Track, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	tracks, err := LoadTracks(path)
	if err != nil {
		return nil, err
	}
	for _, existing := range tracks {
		if existing == t {
			return tracks, fmt.Errorf("%s: %w", t, ErrTrackExists)
		}
	}
	tracks = append(tracks, t)
	if err := SaveTracks(path, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}
