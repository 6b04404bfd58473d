package ortb

import "encoding/json"

// App describes the application in which the ad will be shown (OpenRTB 3.2.14).
type App struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name,omitempty"`
	Bundle    string     `json:"bundle,omitempty"`
	StoreURL  string     `json:"storeurl,omitempty"`
	Ver       string     `json:"ver,omitempty"`
	Publisher *Publisher `json:"publisher,omitempty"`

	Ext json.RawMessage `json:"ext,omitempty"`
}

// Publisher describes the entity that controls the content of the app.
type Publisher struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}
