package rail

import "testing"

func TestTileAddRoundTrip(t *testing.T) {
	origin := TileXY(10, 20)
	for d := DiagDirNE; d <= DiagDirNW; d++ {
		n := origin.Add(d)
		if n == InvalidTile {
			t.Fatalf("Add(%s) off map", d)
		}
		if back := n.Add(d.Reverse()); back != origin {
			t.Errorf("Add(%s) then reverse = %s, want %s", d, back, origin)
		}
		if origin.Distance(n) != 1 {
			t.Errorf("neighbour %s at distance %d", n, origin.Distance(n))
		}
	}
	if TileXY(0, 0).Add(DiagDirNE) != InvalidTile {
		t.Error("expected invalid tile past the map edge")
	}
}

func TestTrackdirExitAndNext(t *testing.T) {
	for td := Trackdir(0); td <= TrackdirRightN; td++ {
		if !td.Valid() {
			continue
		}
		if td.Reverse().Reverse() != td {
			t.Fatalf("%s: double reverse mismatch", td)
		}
		next := td.Next()
		// the straight continuation must be enterable from the exit edge
		if !ReachableTrackdirs(td.Exitdir()).Has(next) {
			t.Errorf("%s: next %s not reachable when moving %s", td, next, td.Exitdir())
		}
	}
}

func TestReachableTrackdirs(t *testing.T) {
	cases := []struct {
		dir  DiagDir
		want TrackdirBits
	}{
		{DiagDirNE, TrackdirXNE.Bit() | TrackdirLowerE.Bit() | TrackdirLeftN.Bit()},
		{DiagDirSE, TrackdirYSE.Bit() | TrackdirUpperE.Bit() | TrackdirLeftS.Bit()},
		{DiagDirSW, TrackdirXSW.Bit() | TrackdirUpperW.Bit() | TrackdirRightS.Bit()},
		{DiagDirNW, TrackdirYNW.Bit() | TrackdirLowerW.Bit() | TrackdirRightN.Bit()},
	}
	for _, tc := range cases {
		if got := ReachableTrackdirs(tc.dir); got != tc.want {
			t.Errorf("ReachableTrackdirs(%s) = %v, want %v", tc.dir, got.Each(), tc.want.Each())
		}
	}
}

func TestCrossingTrackdirs(t *testing.T) {
	if !TrackdirXNE.Crossing().Has(TrackdirYSE) || !TrackdirXNE.Crossing().Has(TrackdirYNW) {
		t.Error("X should cross Y in both directions")
	}
	if TrackdirXNE.Crossing().Has(TrackdirLowerE) {
		t.Error("X must not cross the lower track")
	}
	if !TrackdirUpperE.Crossing().Has(TrackdirLeftN) {
		t.Error("upper should cross left")
	}
}

func TestTrackdirBitsIteration(t *testing.T) {
	b := TrackdirXSW.Bit() | TrackdirXNE.Bit() | TrackdirLeftN.Bit()
	got := b.Each()
	want := []Trackdir{TrackdirXNE, TrackdirXSW, TrackdirLeftN}
	if len(got) != len(want) {
		t.Fatalf("Each() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Each()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if b.Tracks() != TrackBitX|TrackBitLeft {
		t.Errorf("Tracks() = %b", b.Tracks())
	}
}

func TestParseNames(t *testing.T) {
	td, err := ParseTrackdir("right_n")
	if err != nil || td != TrackdirRightN {
		t.Fatalf("ParseTrackdir: %v %v", td, err)
	}
	if _, err := ParseTrackdir("sideways"); err == nil {
		t.Error("expected error for unknown trackdir")
	}
	st, err := ParseSignalType("pbs_oneway")
	if err != nil || st != SignalPBSOneway || !st.IsPBS() || !st.IsOneway() {
		t.Fatalf("ParseSignalType: %v %v", st, err)
	}
	if SignalPBS.IsOneway() {
		t.Error("two-way path signal reported as one-way")
	}
}
