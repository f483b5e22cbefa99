package telemetry

import "testing"

func window(tick int32, counts ...int) WindowStats {
	ws := WindowStats{WindowEndTick: tick}
	for i, n := range counts {
		ws.Species = append(ws.Species, SpeciesStats{WindowEnd: tick, Species: testSpecies[i], Count: n})
	}
	return ws
}

func countType(bookmarks []Bookmark, typ BookmarkType) int {
	n := 0
	for _, b := range bookmarks {
		if b.Type == typ {
			n++
		}
	}
	return n
}

func TestBookmarkDetector_Extinction(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(window(100, 50, 20, 4))
	bms := bd.Check(window(200, 50, 20, 0))
	if countType(bms, BookmarkExtinction) != 1 {
		t.Fatalf("expected one extinction bookmark, got %v", bms)
	}
	if bms[0].Species != "fox" {
		t.Errorf("extinct species = %q, want fox", bms[0].Species)
	}

	if bms := bd.Check(window(300, 50, 20, 0)); countType(bms, BookmarkExtinction) != 0 {
		t.Error("extinction reported twice")
	}
}

func TestBookmarkDetector_NeverPresentIsNotExtinct(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := int32(0); i < 3; i++ {
		if bms := bd.Check(window(i*100, 50, 20, 0)); countType(bms, BookmarkExtinction) != 0 {
			t.Fatal("species that never lived reported extinct")
		}
	}
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := int32(0); i < 3; i++ {
		bd.Check(window(i*100, 50, 100, 5))
	}

	bms := bd.Check(window(300, 50, 60, 5))
	if countType(bms, BookmarkPopulationCrash) != 1 {
		t.Fatalf("expected population_crash bookmark, got %v", bms)
	}

	// Peak resets after a crash
	if bms := bd.Check(window(400, 50, 55, 5)); countType(bms, BookmarkPopulationCrash) != 0 {
		t.Error("small further drop should not re-trigger")
	}
}

func TestBookmarkDetector_SmallPopulationNoCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(window(0, 50, 20, 6))
	if bms := bd.Check(window(100, 50, 20, 2)); countType(bms, BookmarkPopulationCrash) != 0 {
		t.Error("population below minimum peak reported a crash")
	}
}

func TestBookmarkDetector_StableEcosystem(t *testing.T) {
	bd := NewBookmarkDetector(10)

	found := 0
	for i := int32(0); i < 12; i++ {
		found += countType(bd.Check(window(i*100, 50, 20, 4)), BookmarkStableEcosystem)
	}
	if found != 1 {
		t.Errorf("stable_ecosystem triggered %d times, want exactly 1", found)
	}
}

func TestBookmarkDetector_UnstableEcosystem(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := int32(0); i < 12; i++ {
		rabbits := 20
		if i%2 == 0 {
			rabbits = 60
		}
		if bms := bd.Check(window(i*100, 50, rabbits, 4)); countType(bms, BookmarkStableEcosystem) != 0 {
			t.Fatal("oscillating population reported stable")
		}
	}
}
