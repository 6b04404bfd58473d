package parambuilder

import (
	"strings"

	"rtbconsent/internal/ortb"
)

// Targeting is the first-party user data supplied with the ad request.
type Targeting struct {
	YearOfBirth int64               `json:"year_of_birth,omitempty"`
	Gender      string              `json:"gender,omitempty"`
	Keywords    []string            `json:"keywords,omitempty"`
	Data        map[string][]string `json:"data,omitempty"`
}

var genders = map[string]string{"m": "M", "f": "F", "o": "O", "male": "M", "female": "F", "other": "O"}

// User writes the user object. It never touches user.consent, which belongs
// to the consent builder.
type User struct {
	targeting Targeting
}

func NewUser(t Targeting) *User {
	return &User{targeting: t}
}

func (b *User) Build(req *ortb.BidRequest) {
	t := b.targeting
	if t.YearOfBirth == 0 && t.Gender == "" && len(t.Keywords) == 0 && len(t.Data) == 0 {
		return
	}
	user := req.EnsureUser()
	if t.YearOfBirth > 0 {
		user.Yob = t.YearOfBirth
	}
	if g, ok := genders[strings.ToLower(t.Gender)]; ok {
		user.Gender = g
	}
	if len(t.Keywords) > 0 {
		user.Keywords = strings.Join(t.Keywords, ",")
	}
	if len(t.Data) > 0 {
		user.Ext, _ = ortb.SetExtField(user.Ext, "data", t.Data)
	}
}
