package packed

import "math"

// Flag bits in the low nibble of an Extras word. The next nibble holds the
// orientation. Everything above bit 7 is reserved.
const (
	FlagPrivate  uint32 = 1 << 0
	FlagArchived uint32 = 1 << 1
	FlagTrashed  uint32 = 1 << 2
	FlagLiked    uint32 = 1 << 3

	// FlagLifecycle masks the three mutually exclusive lifecycle bits.
	FlagLifecycle = FlagPrivate | FlagArchived | FlagTrashed

	orientationShift = 4
	orientationMask  = 0xF
)

// Orientation is a 4-bit enum matching EXIF orientation values 1-8.
// OrientationUnspecified (0) is used when the value is unknown or a caller
// supplied an out-of-range value.
type Orientation uint8

const (
	OrientationUnspecified Orientation = 0
	OrientationNormal      Orientation = 1
	OrientationRotate90    Orientation = 6
	OrientationRotate180   Orientation = 3
	OrientationRotate270   Orientation = 8
)

// Extras is the packed flags+orientation attribute group.
type Extras uint32

// PackFlags builds an Extras word from its logical parts. Orientation values
// outside the 4-bit range are clamped to OrientationUnspecified rather than
// rejected: a page render survives a bad EXIF value, the attribute does not.
func PackFlags(private, archived, trashed, liked bool, orientation Orientation) Extras {
	var v uint32
	if private {
		v |= FlagPrivate
	}
	if archived {
		v |= FlagArchived
	}
	if trashed {
		v |= FlagTrashed
	}
	if liked {
		v |= FlagLiked
	}
	if orientation > orientationMask {
		orientation = OrientationUnspecified
	}
	v |= uint32(orientation) << orientationShift
	return Extras(v)
}

// UnpackFlags is the inverse of PackFlags.
func UnpackFlags(e Extras) (private, archived, trashed, liked bool, orientation Orientation) {
	return e.Private(), e.Archived(), e.Trashed(), e.Liked(), e.Orientation()
}

func (e Extras) Private() bool  { return uint32(e)&FlagPrivate != 0 }
func (e Extras) Archived() bool { return uint32(e)&FlagArchived != 0 }
func (e Extras) Trashed() bool  { return uint32(e)&FlagTrashed != 0 }
func (e Extras) Liked() bool    { return uint32(e)&FlagLiked != 0 }

func (e Extras) Orientation() Orientation {
	return Orientation(uint32(e) >> orientationShift & orientationMask)
}

// InDefaultView reports whether no lifecycle flag excludes the item from the
// default timeline view.
func (e Extras) InDefaultView() bool { return uint32(e)&FlagLifecycle == 0 }

// Raw exposes the stored word for persistence by the database package only.
func (e Extras) Raw() uint32 { return uint32(e) }

// ExtrasFromRaw rehydrates a stored word.
func ExtrasFromRaw(v uint32) Extras { return Extras(v) }

// Pack2xI32 packs two signed 32-bit values into one 64-bit word, a in the
// high half. Round-trips the full int32 range including negative sentinels.
func Pack2xI32(a, b int32) uint64 {
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

// Unpack2xI32 is the inverse of Pack2xI32.
func Unpack2xI32(v uint64) (a, b int32) {
	return int32(uint32(v >> 32)), int32(uint32(v))
}

// Pack2xF32 packs two 32-bit floats bit-exactly, a in the high half. NaN and
// signed zero survive because the bits are never widened through float64.
func Pack2xF32(a, b float32) uint64 {
	return uint64(math.Float32bits(a))<<32 | uint64(math.Float32bits(b))
}

// Unpack2xF32 is the inverse of Pack2xF32.
func Unpack2xF32(v uint64) (a, b float32) {
	return math.Float32frombits(uint32(v >> 32)), math.Float32frombits(uint32(v))
}

// UnknownScalar is the sentinel for an absent timeline or resolution half.
const UnknownScalar int32 = -1

// Timeline is the packed playback position+duration group for playable media.
type Timeline uint64

// NewTimeline packs a playback position and duration, both in milliseconds.
func NewTimeline(position, duration int32) Timeline {
	return Timeline(Pack2xI32(position, duration))
}

// UnknownTimeline marks media with no playback state.
func UnknownTimeline() Timeline {
	return NewTimeline(UnknownScalar, UnknownScalar)
}

func (t Timeline) Position() int32 { a, _ := Unpack2xI32(uint64(t)); return a }
func (t Timeline) Duration() int32 { _, b := Unpack2xI32(uint64(t)); return b }

// Known reports whether the timeline carries real playback state.
func (t Timeline) Known() bool { return t.Duration() != UnknownScalar }

func (t Timeline) Raw() uint64 { return uint64(t) }

func TimelineFromRaw(v uint64) Timeline { return Timeline(v) }

// Resolution is the packed width+height group.
type Resolution uint64

func NewResolution(width, height int32) Resolution {
	return Resolution(Pack2xI32(width, height))
}

// UnknownResolution marks media whose dimensions have not been probed.
func UnknownResolution() Resolution {
	return NewResolution(UnknownScalar, UnknownScalar)
}

func (r Resolution) Width() int32  { a, _ := Unpack2xI32(uint64(r)); return a }
func (r Resolution) Height() int32 { _, b := Unpack2xI32(uint64(r)); return b }

// Known reports whether the dimensions are real.
func (r Resolution) Known() bool { return r.Width() != UnknownScalar }

func (r Resolution) Raw() uint64 { return uint64(r) }

func ResolutionFromRaw(v uint64) Resolution { return Resolution(v) }

// GeoPoint is the packed latitude+longitude group. Unknown halves are NaN.
type GeoPoint uint64

func NewGeoPoint(latitude, longitude float32) GeoPoint {
	return GeoPoint(Pack2xF32(latitude, longitude))
}

// UnknownGeoPoint marks media with no recorded location.
func UnknownGeoPoint() GeoPoint {
	return NewGeoPoint(float32(math.NaN()), float32(math.NaN()))
}

func (g GeoPoint) Latitude() float32  { a, _ := Unpack2xF32(uint64(g)); return a }
func (g GeoPoint) Longitude() float32 { _, b := Unpack2xF32(uint64(g)); return b }

// Known reports whether the point carries real coordinates.
func (g GeoPoint) Known() bool {
	return !math.IsNaN(float64(g.Latitude())) && !math.IsNaN(float64(g.Longitude()))
}

func (g GeoPoint) Raw() uint64 { return uint64(g) }

func GeoPointFromRaw(v uint64) GeoPoint { return GeoPoint(v) }
