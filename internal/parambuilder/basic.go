package parambuilder

import (
	"slices"

	"rtbconsent/internal/ortb"
	"rtbconsent/pkg/domain"
)

// Ad positions accepted on AdUnit.Position.
const (
	PositionUnknown    = "unknown"
	PositionHeader     = "header"
	PositionFooter     = "footer"
	PositionFullScreen = "fullscreen"
)

var positionCodes = map[string]int8{
	PositionUnknown:    ortb.AdPositionUnknown,
	PositionHeader:     ortb.AdPositionHeader,
	PositionFooter:     ortb.AdPositionFooter,
	PositionFullScreen: ortb.AdPositionFullScreen,
}

// ValidPosition reports whether p is empty or a known position name.
func ValidPosition(p string) bool {
	if p == "" {
		return true
	}
	_, ok := positionCodes[p]
	return ok
}

// Supported video MIME types and protocols (VAST 2.0, VAST 2.0 wrapper).
var (
	videoMimes     = []string{"video/mp4", "video/quicktime", "video/x-m4v", "video/3gpp", "video/3gpp2"}
	videoProtocols = []int{2, 5}
)

// Size is a creative size in device-independent pixels.
type Size struct {
	W int64 `json:"w"`
	H int64 `json:"h"`
}

// VideoParams describes a video placement.
type VideoParams struct {
	Placement   int8   `json:"placement,omitempty"`
	MinDuration int64  `json:"min_duration,omitempty"`
	MaxDuration int64  `json:"max_duration,omitempty"`
	MinBitrate  int64  `json:"min_bitrate,omitempty"`
	MaxBitrate  int64  `json:"max_bitrate,omitempty"`
	StartDelay  *int64 `json:"start_delay,omitempty"`
	API         []int  `json:"api,omitempty"`
}

// AdUnit is the placement the request is built for.
type AdUnit struct {
	ConfigID     string              `json:"config_id"`
	Sizes        []Size              `json:"sizes"`
	Position     string              `json:"position,omitempty"`
	Interstitial bool                `json:"interstitial,omitempty"`
	Video        *VideoParams        `json:"video,omitempty"`
	API          []int               `json:"api,omitempty"`
	ContextData  map[string][]string `json:"context_data,omitempty"`
	AdSlot       string              `json:"ad_slot,omitempty"`
}

// Basic writes the request envelope and the single impression.
type Basic struct {
	unit       AdUnit
	tmaxMillis int64
	omidName   string
	omidVer    string
	newID      func() string
}

// BasicOption configures a Basic builder.
type BasicOption func(*Basic)

// WithIDGenerator overrides the bid request id source (tests).
func WithIDGenerator(fn func() string) BasicOption {
	return func(b *Basic) {
		b.newID = fn
	}
}

// WithOMIDPartner sets the Open Measurement partner name and version on source.ext.
func WithOMIDPartner(name, version string) BasicOption {
	return func(b *Basic) {
		b.omidName = name
		b.omidVer = version
	}
}

// NewBasic creates a Basic builder for unit.
func NewBasic(unit AdUnit, tmaxMillis int64, opts ...BasicOption) *Basic {
	b := &Basic{
		unit:       unit,
		tmaxMillis: tmaxMillis,
		omidName:   "rtbconsent",
		newID:      func() string { return domain.NewBidRequestID().String() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Basic) Build(req *ortb.BidRequest) {
	req.ID = b.newID()
	req.AT = 1
	req.TMax = b.tmaxMillis
	req.Cur = []string{"USD"}
	req.Imp = []ortb.Imp{b.imp()}

	if req.Source == nil {
		req.Source = &ortb.Source{}
	}
	req.Source.TID = b.newID()
	if b.omidName != "" {
		req.Source.Ext, _ = ortb.SetExtField(req.Source.Ext, "omidpn", b.omidName)
		if b.omidVer != "" {
			req.Source.Ext, _ = ortb.SetExtField(req.Source.Ext, "omidpv", b.omidVer)
		}
	}
}

func (b *Basic) imp() ortb.Imp {
	u := b.unit
	secure := int8(1)
	imp := ortb.Imp{
		ID:     "1",
		TagID:  u.ConfigID,
		Secure: &secure,
	}
	if u.Interstitial {
		imp.Instl = 1
	}

	pos := b.position()
	if u.Video != nil {
		imp.Video = b.video(pos)
	} else {
		banner := &ortb.Banner{Pos: pos, API: u.API}
		for _, s := range u.Sizes {
			banner.Format = append(banner.Format, ortb.Format{W: s.W, H: s.H})
		}
		imp.Banner = banner
	}

	imp.Ext, _ = ortb.SetExtField(imp.Ext, "prebid", map[string]any{
		"storedrequest": map[string]string{"id": u.ConfigID},
	})
	if len(u.ContextData) > 0 || u.AdSlot != "" {
		ctxData := map[string]any{}
		for k, v := range u.ContextData {
			ctxData[k] = v
		}
		if u.AdSlot != "" {
			ctxData["adslot"] = u.AdSlot
		}
		imp.Ext, _ = ortb.SetExtField(imp.Ext, "context", map[string]any{"data": ctxData})
	}
	return imp
}

// position resolves the OpenRTB pos code. Interstitials are full screen;
// otherwise an unset position stays absent.
func (b *Basic) position() *int8 {
	if b.unit.Interstitial {
		p := ortb.AdPositionFullScreen
		return &p
	}
	code, ok := positionCodes[b.unit.Position]
	if !ok || b.unit.Position == "" {
		return nil
	}
	return &code
}

func (b *Basic) video(pos *int8) *ortb.Video {
	p := b.unit.Video
	v := &ortb.Video{
		Mimes:       slices.Clone(videoMimes),
		Protocols:   slices.Clone(videoProtocols),
		MinDuration: p.MinDuration,
		MaxDuration: p.MaxDuration,
		MinBitrate:  p.MinBitrate,
		MaxBitrate:  p.MaxBitrate,
		StartDelay:  p.StartDelay,
		Placement:   p.Placement,
		Linearity:   1,
		PlaybackEnd: 2,
		Delivery:    []int{3},
		Pos:         pos,
		API:         p.API,
	}
	if len(b.unit.Sizes) > 0 {
		v.W, v.H = b.unit.Sizes[0].W, b.unit.Sizes[0].H
	}
	return v
}
