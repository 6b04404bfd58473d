package parambuilder

import "rtbconsent/internal/ortb"

// AppInfo describes the publisher application.
type AppInfo struct {
	Bundle      string              `json:"bundle"`
	Name        string              `json:"name,omitempty"`
	Version     string              `json:"version,omitempty"`
	StoreURL    string              `json:"store_url,omitempty"`
	PublisherID string              `json:"publisher_id,omitempty"`
	ContextData map[string][]string `json:"context_data,omitempty"`
}

// App writes the app object.
type App struct {
	info AppInfo
}

func NewApp(info AppInfo) *App {
	return &App{info: info}
}

func (b *App) Build(req *ortb.BidRequest) {
	i := b.info
	app := &ortb.App{
		Bundle:   i.Bundle,
		Name:     i.Name,
		Ver:      i.Version,
		StoreURL: i.StoreURL,
	}
	if i.PublisherID != "" {
		app.Publisher = &ortb.Publisher{ID: i.PublisherID}
	}
	if len(i.ContextData) > 0 {
		app.Ext, _ = ortb.SetExtField(app.Ext, "data", i.ContextData)
	}
	req.App = app
}
