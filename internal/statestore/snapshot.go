package statestore

import "yt-feed-sync/internal/model"

// LoadLastDownload reads the most-recent-download snapshot; a missing or
// corrupt file reports ok=false.
func LoadLastDownload(path string) (model.LastDownload, bool) {
	var snap model.LastDownload
	if !ReadJSONLenient(path, &snap) {
		return model.LastDownload{}, false
	}
	return snap, snap.ItemID != ""
}

func SaveLastDownload(path string, snap model.LastDownload) error {
	return WriteJSON(path, snap)
}
