package ortb

import "encoding/json"

// Ad positions from OpenRTB list 5.4.
const (
	AdPositionUnknown    int8 = 0
	AdPositionHeader     int8 = 4
	AdPositionFooter     int8 = 5
	AdPositionFullScreen int8 = 7
)

// Imp describes an ad placement or impression being auctioned (OpenRTB 3.2.4).
type Imp struct {
	ID     string  `json:"id"`
	Banner *Banner `json:"banner,omitempty"`
	Video  *Video  `json:"video,omitempty"`

	// 1 = the ad is interstitial or full screen, 0 = not interstitial.
	Instl int8 `json:"instl,omitempty"`

	TagID string `json:"tagid,omitempty"`

	// 1 = the impression requires secure HTTPS creative assets.
	Secure *int8 `json:"secure,omitempty"`

	Ext json.RawMessage `json:"ext,omitempty"`
}

// Banner represents the most general type of impression (OpenRTB 3.2.6).
type Banner struct {
	Format []Format `json:"format,omitempty"`
	Pos    *int8    `json:"pos,omitempty"`
	API    []int    `json:"api,omitempty"`
}

// Format is an allowed size of a banner (OpenRTB 3.2.10).
type Format struct {
	W int64 `json:"w"`
	H int64 `json:"h"`
}

// Video represents an in-stream or out-stream video impression (OpenRTB 3.2.7).
type Video struct {
	Mimes       []string `json:"mimes"`
	MinDuration int64    `json:"minduration,omitempty"`
	MaxDuration int64    `json:"maxduration,omitempty"`
	Protocols   []int    `json:"protocols,omitempty"`
	W           int64    `json:"w,omitempty"`
	H           int64    `json:"h,omitempty"`
	StartDelay  *int64   `json:"startdelay,omitempty"`
	Placement   int8     `json:"placement,omitempty"`
	Linearity   int8     `json:"linearity,omitempty"`
	MinBitrate  int64    `json:"minbitrate,omitempty"`
	MaxBitrate  int64    `json:"maxbitrate,omitempty"`
	PlaybackEnd int8     `json:"playbackend,omitempty"`
	Delivery    []int    `json:"delivery,omitempty"`
	Pos         *int8    `json:"pos,omitempty"`
	API         []int    `json:"api,omitempty"`
}
