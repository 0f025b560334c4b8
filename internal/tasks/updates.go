package tasks

import (
	"fmt"

	"github.com/desertthunder/tunecache/internal/models"
)

// ProgressUpdate represents a progress event during a sync pass.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase        // Operation phase
	Step    int          // Current step number within the pass
	Total   int          // Total steps of the path taken
	Genre   models.Genre // Genre being synced
	PassID  string       // Identifies the pass across updates
	Message string       // Human-readable message for display
	Data    any          // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	CheckNetwork Phase = iota
	FetchSongs
	PersistSongs
	ReadBack
	LoadOffline
	Completed
)

func (p Phase) String() string {
	switch p {
	case CheckNetwork:
		return "check_network"
	case FetchSongs:
		return "fetch_songs"
	case PersistSongs:
		return "persist_songs"
	case ReadBack:
		return "read_back"
	case LoadOffline:
		return "load_offline"
	case Completed:
		return "completed"
	default:
		return ""
	}
}

const (
	onlineSteps  = 4
	offlineSteps = 2
)

func checkNetworkUpdate(genre models.Genre, pass string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckNetwork,
		Step:    1,
		Total:   onlineSteps,
		Genre:   genre,
		PassID:  pass,
		Message: fmt.Sprintf("Checking connectivity for %s...", genre),
	}
}

func fetchSongsUpdate(genre models.Genre, pass string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSongs,
		Step:    2,
		Total:   onlineSteps,
		Genre:   genre,
		PassID:  pass,
		Message: fmt.Sprintf("Fetching %s songs...", genre),
	}
}

func persistSongsUpdate(genre models.Genre, pass string, n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PersistSongs,
		Step:    3,
		Total:   onlineSteps,
		Genre:   genre,
		PassID:  pass,
		Message: fmt.Sprintf("Caching %d %s songs...", n, genre),
	}
}

func readBackUpdate(genre models.Genre, pass string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadBack,
		Step:    4,
		Total:   onlineSteps,
		Genre:   genre,
		PassID:  pass,
		Message: fmt.Sprintf("Reading %s songs from cache...", genre),
	}
}

func loadOfflineUpdate(genre models.Genre, pass string, cause error) ProgressUpdate {
	msg := fmt.Sprintf("Offline: loading cached %s songs...", genre)
	if cause != nil {
		msg = fmt.Sprintf("Loading cached %s songs after error: %v", genre, cause)
	}
	return ProgressUpdate{
		Phase:   LoadOffline,
		Step:    offlineSteps,
		Total:   offlineSteps,
		Genre:   genre,
		PassID:  pass,
		Message: msg,
		Data:    cause,
	}
}

func completedUpdate(run models.SyncRun) ProgressUpdate {
	msg := fmt.Sprintf("%s: %s (%d songs)", run.Genre, run.Outcome, run.SongCount)
	if run.Error != "" {
		msg = fmt.Sprintf("%s: %s (%d songs): %s", run.Genre, run.Outcome, run.SongCount, run.Error)
	}
	return ProgressUpdate{
		Phase:   Completed,
		Genre:   run.Genre,
		PassID:  run.ID,
		Message: msg,
		Data:    run,
	}
}

func genreSyncedUpdate(done, total int, res GenreSyncResult) ProgressUpdate {
	msg := fmt.Sprintf("%s: %s (%d songs)", res.Genre, res.Outcome, len(res.Songs))
	if res.Err != nil {
		msg = fmt.Sprintf("%s: %s: %v", res.Genre, res.Outcome, res.Err)
	}
	return ProgressUpdate{
		Phase:   Completed,
		Step:    done,
		Total:   total,
		Genre:   res.Genre,
		Message: msg,
		Data:    res,
	}
}
