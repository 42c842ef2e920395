package models

import "time"

// Page holds the structure for the pages collection in mongo. The slug is the
// document id and the owner is embedded, so a claim is a single insert.
type Page struct {
	Slug          string            `json:"slug" bson:"_id"`
	UID           string            `json:"-" bson:"uid,omitempty"`
	OwnerEmail    string            `json:"-" bson:"ownerEmail,omitempty"`
	DisplayName   string            `json:"displayName" bson:"displayName"`
	Bio           string            `json:"bio" bson:"bio"`
	PhotoURL      string            `json:"photoUrl" bson:"photoUrl"`
	Socials       map[string]string `json:"socials" bson:"socials"`
	Blocks        []Block           `json:"blocks" bson:"blocks"`
	Background    Background        `json:"background" bson:"background"`
	Styles        Styles            `json:"styles" bson:"styles"`
	LayerOrder    []string          `json:"layerOrder" bson:"layerOrder"`
	CustomButtons []CustomButton    `json:"customButtons" bson:"customButtons"`

	PollIDs            []string `json:"pollIds,omitempty" bson:"pollIds,omitempty"`
	QuestionIDs        []string `json:"questionIds,omitempty" bson:"questionIds,omitempty"`
	Vitrin             *Vitrin  `json:"vitrin,omitempty" bson:"vitrin,omitempty"`
	Views              int64    `json:"views" bson:"views"`
	PhotoPublicID      string   `json:"-" bson:"photoPublicId,omitempty"`
	BackgroundPublicID string   `json:"-" bson:"backgroundPublicId,omitempty"`

	Verified  bool `json:"verified" bson:"verified"`
	Suspended bool `json:"suspended,omitempty" bson:"suspended"`

	DeletedAt  *time.Time `json:"-" bson:"deletedAt,omitempty"`
	DeletedUID string     `json:"-" bson:"deletedUid,omitempty"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Block is a single content block rendered on a page
type Block struct {
	ID      string `json:"id" bson:"id"`
	Type    string `json:"type" bson:"type"`
	Content string `json:"content,omitempty" bson:"content,omitempty"`
	URL     string `json:"url,omitempty" bson:"url,omitempty"`
	Title   string `json:"title,omitempty" bson:"title,omitempty"`
	Caption string `json:"caption,omitempty" bson:"caption,omitempty"`
}

// Background describes how the page background is painted
type Background struct {
	Type    string `json:"type" bson:"type"`
	Value   string `json:"value" bson:"value"`
	Pattern string `json:"pattern" bson:"pattern"`
}

// Styles holds the visual choices for a page
type Styles struct {
	Theme       string `json:"theme" bson:"theme"`
	Font        string `json:"font" bson:"font"`
	ButtonStyle string `json:"buttonStyle" bson:"buttonStyle"`
	TextColor   string `json:"textColor,omitempty" bson:"textColor,omitempty"`
	ButtonColor string `json:"buttonColor,omitempty" bson:"buttonColor,omitempty"`
}

// CustomButton is an owner defined call to action button
type CustomButton struct {
	Label string `json:"label" bson:"label"`
	URL   string `json:"url" bson:"url"`
	Icon  string `json:"icon,omitempty" bson:"icon,omitempty"`
}

// Vitrin is the small storefront a page can expose
type Vitrin struct {
	Enabled  bool            `json:"enabled" bson:"enabled"`
	Title    string          `json:"title" bson:"title"`
	Products []VitrinProduct `json:"products" bson:"products"`
}

// VitrinProduct is a product listed in a vitrin
type VitrinProduct struct {
	ID         string `json:"id" bson:"id"`
	Name       string `json:"name" bson:"name"`
	PriceCents int64  `json:"priceCents" bson:"priceCents"`
	ImageURL   string `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	URL        string `json:"url,omitempty" bson:"url,omitempty"`
}

// Product returns the vitrin product with the given id
func (v *Vitrin) Product(id string) (VitrinProduct, bool) {
	if v == nil {
		return VitrinProduct{}, false
	}
	for _, p := range v.Products {
		if p.ID == id {
			return p, true
		}
	}
	return VitrinProduct{}, false
}

// PublicPage is the subset of a page served to anonymous visitors
type PublicPage struct {
	Slug          string            `json:"slug"`
	DisplayName   string            `json:"displayName"`
	Bio           string            `json:"bio"`
	PhotoURL      string            `json:"photoUrl"`
	Socials       map[string]string `json:"socials"`
	Blocks        []Block           `json:"blocks"`
	Background    Background        `json:"background"`
	Styles        Styles            `json:"styles"`
	LayerOrder    []string          `json:"layerOrder"`
	CustomButtons []CustomButton    `json:"customButtons"`
	Vitrin        *Vitrin           `json:"vitrin,omitempty"`
	Verified      bool              `json:"verified"`
	Views         int64             `json:"views"`
	Badges        []Badge           `json:"badges"`
}

// Public converts a page into its public representation
func (p Page) Public(badges []Badge) PublicPage {
	socials := p.Socials
	if socials == nil {
		socials = map[string]string{}
	}
	if badges == nil {
		badges = []Badge{}
	}
	blocks := p.Blocks
	if blocks == nil {
		blocks = []Block{}
	}
	buttons := p.CustomButtons
	if buttons == nil {
		buttons = []CustomButton{}
	}
	layers := p.LayerOrder
	if layers == nil {
		layers = []string{}
	}
	return PublicPage{
		Slug:          p.Slug,
		DisplayName:   p.DisplayName,
		Bio:           p.Bio,
		PhotoURL:      p.PhotoURL,
		Socials:       socials,
		Blocks:        blocks,
		Background:    p.Background,
		Styles:        p.Styles,
		LayerOrder:    layers,
		CustomButtons: buttons,
		Vitrin:        p.Vitrin,
		Verified:      p.Verified,
		Views:         p.Views,
		Badges:        badges,
	}
}

// PageCard is the short form of a page used in listings
type PageCard struct {
	Slug        string `json:"slug" bson:"_id"`
	DisplayName string `json:"displayName" bson:"displayName"`
	PhotoURL    string `json:"photoUrl" bson:"photoUrl"`
}
