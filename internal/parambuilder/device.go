package parambuilder

import (
	"strings"

	"github.com/mssola/useragent"

	"rtbconsent/internal/ortb"
)

// DeviceInfo is what the client reports about the device.
type DeviceInfo struct {
	UA       string `json:"ua,omitempty"`
	IP       string `json:"ip,omitempty"`
	Make     string `json:"make,omitempty"`
	Model    string `json:"model,omitempty"`
	Width    int64  `json:"w,omitempty"`
	Height   int64  `json:"h,omitempty"`
	Language string `json:"language,omitempty"`
	IFA      string `json:"ifa,omitempty"`
	LMT      *bool  `json:"lmt,omitempty"`
}

// Device writes the device object. The advertising id is only sent when
// identifier access is allowed; the caller decides that from consent.
type Device struct {
	info       DeviceInfo
	allowIFA   bool
	fallbackIP string
	fallbackUA string
}

// DeviceOption configures a Device builder.
type DeviceOption func(*Device)

// WithClientMetadata supplies the IP and User-Agent observed on the inbound
// connection, used when the body omits them.
func WithClientMetadata(ip, ua string) DeviceOption {
	return func(d *Device) {
		d.fallbackIP = ip
		d.fallbackUA = ua
	}
}

// NewDevice creates a Device builder. allowIFA gates device.ifa.
func NewDevice(info DeviceInfo, allowIFA bool, opts ...DeviceOption) *Device {
	d := &Device{info: info, allowIFA: allowIFA}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (b *Device) Build(req *ortb.BidRequest) {
	i := b.info
	dev := req.EnsureDevice()

	dev.UA = firstNonEmpty(i.UA, b.fallbackUA)
	dev.IP = firstNonEmpty(i.IP, b.fallbackIP)
	dev.Make = i.Make
	dev.Model = i.Model
	dev.W = i.Width
	dev.H = i.Height
	dev.Language = normalizeLanguage(i.Language)

	if dev.UA != "" {
		dev.OS, dev.OSV, dev.DeviceType = classify(dev.UA)
	}

	if i.LMT != nil {
		lmt := int8(0)
		if *i.LMT {
			lmt = 1
		}
		dev.Lmt = &lmt
	}

	// A limited-tracking device never exposes its id either.
	if b.allowIFA && (i.LMT == nil || !*i.LMT) {
		dev.IFA = i.IFA
	} else {
		dev.IFA = ""
	}
}

// classify derives os, osv and devicetype from a User-Agent.
func classify(ua string) (os, osv string, deviceType int8) {
	parsed := useragent.New(ua)
	info := parsed.OSInfo()
	os, osv = info.Name, info.Version

	lower := strings.ToLower(ua)
	// OpenRTB expects the short platform names.
	switch {
	case strings.Contains(lower, "iphone") || strings.Contains(lower, "ipad"):
		os = "iOS"
	case strings.Contains(lower, "android"):
		os = "Android"
	}

	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		deviceType = ortb.DeviceTypeTablet
	case parsed.Mobile() || strings.Contains(lower, "mobile"):
		deviceType = ortb.DeviceTypePhone
	case strings.Contains(lower, "smart-tv") || strings.Contains(lower, "smarttv") || strings.Contains(lower, "tizen"):
		deviceType = ortb.DeviceTypeConnectedTV
	case parsed.Bot():
	default:
		deviceType = ortb.DeviceTypePC
	}
	return os, osv, deviceType
}

// normalizeLanguage keeps the ISO-639-1 part of a locale ("en-US" -> "en").
func normalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
