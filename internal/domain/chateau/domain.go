package chateau

import "errors"

var ErrNotFound = errors.New("chateau not found")

type Chateau struct {
	ID                int64    `json:"id"`
	ChateauName       string   `json:"chateauName"`
	ShortDescription  string   `json:"shortDescription,omitempty"`
	LongDescription   []string `json:"longDescription"`
	Address           []string `json:"address"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	ChateauWebsite    string   `json:"chateauWebsite,omitempty"`
	OpeningHoursInfo  string   `json:"openingHoursInfo,omitempty"`
	SpokenLanguages   []string `json:"spokenLanguages"`
	OnSiteActivities  []string `json:"onSiteActivities"`
	OffSiteActivities []string `json:"offSiteActivities"`
	ThingsToKnow      []string `json:"thingsToKnow"`
	AdditionalInfo    []string `json:"additionalInfo"`
	PriceRange        []string `json:"priceRange"`
	BreakfastIncluded string   `json:"breakfastIncluded,omitempty"`
	OverallCapacity   *int32   `json:"overallCapacity,omitempty"`
	Theme             string   `json:"theme,omitempty"`

	HostName             string            `json:"hostName,omitempty"`
	HostAddress          string            `json:"hostAddress,omitempty"`
	HostPhoneNumber      string            `json:"hostPhoneNumber,omitempty"`
	HostEmail            string            `json:"hostEmail,omitempty"`
	HostSocialMediaLinks map[string]string `json:"hostSocialMediaLinks"`

	RoomDescriptions []string `json:"roomDescriptions"`
	ImageURLs        []string `json:"imageUrls"`
}

// Normalize replaces nil collections with empty ones so stored rows never
// carry NULL arrays.
func (c *Chateau) Normalize() {
	for _, s := range c.lists() {
		if *s == nil {
			*s = []string{}
		}
	}
	if c.HostSocialMediaLinks == nil {
		c.HostSocialMediaLinks = map[string]string{}
	}
}

// Apply copies the fields of upd onto c. Scalars are always overwritten;
// collections only when upd provides them.
func (c *Chateau) Apply(upd *Chateau) {
	c.ChateauName = upd.ChateauName
	c.ShortDescription = upd.ShortDescription
	c.Latitude = upd.Latitude
	c.Longitude = upd.Longitude
	c.ChateauWebsite = upd.ChateauWebsite
	c.OpeningHoursInfo = upd.OpeningHoursInfo
	c.BreakfastIncluded = upd.BreakfastIncluded
	c.OverallCapacity = upd.OverallCapacity
	c.Theme = upd.Theme
	c.HostName = upd.HostName
	c.HostAddress = upd.HostAddress
	c.HostPhoneNumber = upd.HostPhoneNumber
	c.HostEmail = upd.HostEmail

	dst, src := c.lists(), upd.lists()
	for i := range dst {
		if *src[i] != nil {
			cp := make([]string, len(*src[i]))
			copy(cp, *src[i])
			*dst[i] = cp
		}
	}
	if upd.HostSocialMediaLinks != nil {
		links := make(map[string]string, len(upd.HostSocialMediaLinks))
		for k, v := range upd.HostSocialMediaLinks {
			links[k] = v
		}
		c.HostSocialMediaLinks = links
	}
}

func (c *Chateau) lists() []*[]string {
	return []*[]string{
		&c.LongDescription,
		&c.Address,
		&c.SpokenLanguages,
		&c.OnSiteActivities,
		&c.OffSiteActivities,
		&c.ThingsToKnow,
		&c.AdditionalInfo,
		&c.PriceRange,
		&c.RoomDescriptions,
		&c.ImageURLs,
	}
}
