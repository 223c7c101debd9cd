package packed

import (
	"math"
	"testing"
)

// TestPackFlagsRoundTrip exercises every flag combination against every
// orientation value.
func TestPackFlagsRoundTrip(t *testing.T) {
	t.Parallel()

	for combo := 0; combo < 16; combo++ {
		private := combo&1 != 0
		archived := combo&2 != 0
		trashed := combo&4 != 0
		liked := combo&8 != 0

		for o := Orientation(0); o < 16; o++ {
			e := PackFlags(private, archived, trashed, liked, o)

			gotPrivate, gotArchived, gotTrashed, gotLiked, gotOrientation := UnpackFlags(e)
			if gotPrivate != private || gotArchived != archived || gotTrashed != trashed || gotLiked != liked {
				t.Fatalf("flags combo %04b orientation %d: got (%v %v %v %v)",
					combo, o, gotPrivate, gotArchived, gotTrashed, gotLiked)
			}
			if gotOrientation != o {
				t.Fatalf("orientation %d round-tripped to %d", o, gotOrientation)
			}
		}
	}
}

// TestPackFlagsClampsOrientation verifies out-of-range orientation values are
// clamped to unspecified instead of corrupting neighboring bits.
func TestPackFlagsClampsOrientation(t *testing.T) {
	t.Parallel()

	e := PackFlags(true, false, false, true, Orientation(200))
	if e.Orientation() != OrientationUnspecified {
		t.Errorf("Orientation() = %d, want unspecified", e.Orientation())
	}
	if !e.Private() || !e.Liked() {
		t.Error("flag bits altered by orientation clamp")
	}
}

func TestPack2xI32RoundTrip(t *testing.T) {
	t.Parallel()

	values := []int32{0, 1, -1, 42, -42, math.MaxInt32, math.MinInt32, UnknownScalar}

	for _, a := range values {
		for _, b := range values {
			gotA, gotB := Unpack2xI32(Pack2xI32(a, b))
			if gotA != a || gotB != b {
				t.Fatalf("Unpack2xI32(Pack2xI32(%d, %d)) = (%d, %d)", a, b, gotA, gotB)
			}
		}
	}
}

// TestPack2xF32RoundTrip checks bit-exact float round-trips, including NaN
// and signed zero which would not survive a float64 coercion.
func TestPack2xF32RoundTrip(t *testing.T) {
	t.Parallel()

	nan := float32(math.NaN())
	negZero := float32(math.Copysign(0, -1))
	values := []float32{0, negZero, 1.5, -1.5, nan,
		float32(math.Inf(1)), float32(math.Inf(-1)),
		math.MaxFloat32, math.SmallestNonzeroFloat32, 48.8584, 2.2945}

	for _, a := range values {
		for _, b := range values {
			gotA, gotB := Unpack2xF32(Pack2xF32(a, b))
			if math.Float32bits(gotA) != math.Float32bits(a) ||
				math.Float32bits(gotB) != math.Float32bits(b) {
				t.Fatalf("Pack2xF32(%v, %v) not bit-exact: got (%v, %v)", a, b, gotA, gotB)
			}
		}
	}
}

func TestLifecycleAccessors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		extras        Extras
		inDefaultView bool
	}{
		{"clean record", PackFlags(false, false, false, false, OrientationNormal), true},
		{"liked only stays in timeline", PackFlags(false, false, false, true, 0), true},
		{"trashed leaves timeline", PackFlags(false, false, true, false, 0), false},
		{"archived leaves timeline", PackFlags(false, true, false, false, 0), false},
		{"private leaves timeline", PackFlags(true, false, false, false, 0), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.extras.InDefaultView(); got != tt.inDefaultView {
				t.Errorf("InDefaultView() = %v, want %v", got, tt.inDefaultView)
			}
		})
	}
}

func TestValueGroupSentinels(t *testing.T) {
	t.Parallel()

	if UnknownTimeline().Known() {
		t.Error("UnknownTimeline should not report Known")
	}
	if UnknownResolution().Known() {
		t.Error("UnknownResolution should not report Known")
	}
	if UnknownGeoPoint().Known() {
		t.Error("UnknownGeoPoint should not report Known")
	}

	tl := NewTimeline(1500, 60000)
	if !tl.Known() || tl.Position() != 1500 || tl.Duration() != 60000 {
		t.Errorf("timeline accessors: position=%d duration=%d", tl.Position(), tl.Duration())
	}

	res := NewResolution(3840, 2160)
	if !res.Known() || res.Width() != 3840 || res.Height() != 2160 {
		t.Errorf("resolution accessors: width=%d height=%d", res.Width(), res.Height())
	}

	geo := NewGeoPoint(48.8584, 2.2945)
	if !geo.Known() {
		t.Error("real coordinates should report Known")
	}
}

// TestRawRoundTrip covers the persistence path used by the database package.
func TestRawRoundTrip(t *testing.T) {
	t.Parallel()

	e := PackFlags(true, false, false, true, OrientationRotate90)
	if ExtrasFromRaw(e.Raw()) != e {
		t.Error("Extras raw round-trip mismatch")
	}

	tl := NewTimeline(-1, math.MinInt32)
	if TimelineFromRaw(tl.Raw()) != tl {
		t.Error("Timeline raw round-trip mismatch")
	}

	res := NewResolution(1920, 1080)
	if ResolutionFromRaw(res.Raw()) != res {
		t.Error("Resolution raw round-trip mismatch")
	}

	geo := UnknownGeoPoint()
	if GeoPointFromRaw(geo.Raw()) != geo {
		t.Error("GeoPoint raw round-trip mismatch")
	}
}
