package config

import "time"

// Static application constants. Runtime overrides go through Config.
const (
	APIBaseURL         = "http://localhost:8000/api/v1/"
	SyncIntervalMillis = 5 * 60 * 1000
	SyncInterval       = time.Duration(SyncIntervalMillis) * time.Millisecond
	OfflineModeEnabled = true
	DatabaseName       = "molle_pos.db"

	PrefName     = "molle_pos_prefs"
	PrefUserID   = "user_id"
	PrefBranchID = "branch_id"
	PrefToken    = "auth_token"
	PrefLastSync = "last_sync"
)

// PrefKeys lists the preference keys the application knows about.
func PrefKeys() []string {
	return []string{PrefUserID, PrefBranchID, PrefToken, PrefLastSync}
}
