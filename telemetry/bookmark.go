package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction      BookmarkType = "extinction"
	BookmarkPopulationCrash BookmarkType = "population_crash"
	BookmarkStableEcosystem BookmarkType = "stable_ecosystem"
)

// Detection thresholds.
const (
	crashDrop      = 0.30 // fraction lost from recent peak
	crashMinPeak   = 10   // peaks below this never crash
	stableWindows  = 5    // consecutive low-variance windows
	stableMaxCV    = 0.2  // coefficient of variation
	stableLookback = 4    // windows the variance is computed over
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Species     string       `csv:"species" json:"species"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"species", b.Species,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in population history.
type BookmarkDetector struct {
	// Rolling history of per-species counts (circular buffer)
	history     [][]int
	historySize int
	historyIdx  int
	historyFull bool

	// Per-species state
	peaks   []int
	extinct []bool

	stableWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < stableLookback {
		historySize = stableLookback
	}
	return &BookmarkDetector{
		history:     make([][]int, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	bd.grow(len(stats.Species))

	var bookmarks []Bookmark
	for i, sp := range stats.Species {
		if b := bd.checkExtinction(i, sp); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkCrash(i, sp); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if sp.Count > bd.peaks[i] {
			bd.peaks[i] = sp.Count
		}
	}

	counts := make([]int, len(stats.Species))
	for i, sp := range stats.Species {
		counts[i] = sp.Count
	}
	bd.addToHistory(counts)

	if b := bd.checkStableEcosystem(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	return bookmarks
}

func (bd *BookmarkDetector) grow(n int) {
	for len(bd.peaks) < n {
		bd.peaks = append(bd.peaks, 0)
		bd.extinct = append(bd.extinct, false)
	}
}

func (bd *BookmarkDetector) addToHistory(counts []int) {
	bd.history[bd.historyIdx] = counts
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n of the latest history entries, oldest first.
func (bd *BookmarkDetector) recent(n int) [][]int {
	size := bd.historyIdx
	if bd.historyFull {
		size = bd.historySize
	}
	if n > size {
		n = size
	}
	out := make([][]int, 0, n)
	for k := n; k > 0; k-- {
		idx := (bd.historyIdx - k + bd.historySize) % bd.historySize
		out = append(out, bd.history[idx])
	}
	return out
}

func (bd *BookmarkDetector) checkExtinction(i int, sp SpeciesStats) *Bookmark {
	if sp.Count > 0 || bd.extinct[i] || bd.peaks[i] == 0 {
		return nil
	}
	bd.extinct[i] = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Tick:        sp.WindowEnd,
		Species:     sp.Species,
		Description: fmt.Sprintf("%s went extinct (peak %d)", sp.Species, bd.peaks[i]),
	}
}

func (bd *BookmarkDetector) checkCrash(i int, sp SpeciesStats) *Bookmark {
	peak := bd.peaks[i]
	if peak < crashMinPeak || sp.Count == 0 {
		return nil
	}

	drop := 1.0 - float64(sp.Count)/float64(peak)
	if drop <= crashDrop {
		return nil
	}

	// Reset peak after crash
	bd.peaks[i] = sp.Count
	return &Bookmark{
		Type:        BookmarkPopulationCrash,
		Tick:        sp.WindowEnd,
		Species:     sp.Species,
		Description: fmt.Sprintf("%s crashed %.0f%% from peak %d to %d", sp.Species, drop*100, peak, sp.Count),
	}
}

func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	if len(stats.Species) == 0 {
		return nil
	}
	for _, sp := range stats.Species {
		if sp.Count == 0 {
			bd.stableWindowsCount = 0
			return nil
		}
	}

	history := bd.recent(stableLookback)
	if len(history) < stableLookback {
		return nil
	}

	stable := true
	series := make([]float64, len(history))
	for i := range stats.Species {
		for k, h := range history {
			if i < len(h) {
				series[k] = float64(h[i])
			} else {
				series[k] = 0
			}
		}
		mean, std := stat.MeanStdDev(series, nil)
		if mean == 0 || std/mean >= stableMaxCV {
			stable = false
			break
		}
	}

	if stable {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == stableWindows { // trigger exactly once per streak
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("All %d species stable over %d+ windows", len(stats.Species), stableWindows),
		}
	}

	return nil
}
