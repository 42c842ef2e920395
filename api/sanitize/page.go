package sanitize

import (
	"fmt"
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/lengapp/leng-api/models"
)

// Caps applied to page fields
const (
	MaxDisplayName   = 100
	MaxBio           = 500
	MaxURL           = 1000
	MaxSocialValue   = 500
	MaxBlocks        = 20
	MaxCustomButtons = 10
	MaxBlockText     = 5000
	MaxBlockTitle    = 200
	MaxButtonLabel   = 50
	MaxIcon          = 50
	MaxID            = 64
)

var (
	socialKeys        = mapset.NewThreadUnsafeSet("instagram", "twitter", "youtube", "linkedin", "github", "website")
	blockTypes        = mapset.NewThreadUnsafeSet("text", "image", "video", "link")
	backgroundTypes   = mapset.NewThreadUnsafeSet("color", "gradient", "image", "pattern")
	patterns          = mapset.NewThreadUnsafeSet("none", "dots", "grid", "waves", "stripes")
	themes            = mapset.NewThreadUnsafeSet("light", "dark", "minimal", "colorful")
	fonts             = mapset.NewThreadUnsafeSet("inter", "roboto", "poppins", "montserrat", "serif", "mono")
	buttonStyles      = mapset.NewThreadUnsafeSet("rounded", "square", "pill", "outline", "shadow")
	colorPattern      = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)
	DefaultLayers     = []string{"profile", "socials", "blocks", "buttons", "polls", "questions", "vitrin", "badges"}
	layerNames        = mapset.NewThreadUnsafeSet(DefaultLayers...)
	defaultStyles     = models.Styles{Theme: "light", Font: "inter", ButtonStyle: "rounded"}
	defaultBackground = models.Background{Type: "color", Value: "#ffffff", Pattern: "none"}
)

// PageInput is the owner supplied body of PUT /page
type PageInput struct {
	Slug          string                 `json:"slug"`
	DisplayName   string                 `json:"displayName"`
	Bio           string                 `json:"bio"`
	PhotoURL      string                 `json:"photoUrl"`
	Socials       map[string]interface{} `json:"socials"`
	Blocks        []models.Block         `json:"blocks"`
	Background    *models.Background     `json:"background"`
	Styles        *models.Styles         `json:"styles"`
	LayerOrder    []string               `json:"layerOrder"`
	CustomButtons []models.CustomButton  `json:"customButtons"`
}

// Page returns the owner writable part of a page built from in. Only fields
// tagged OwnerWritable in PageFields are populated.
func Page(in PageInput) models.Page {
	return models.Page{
		DisplayName:   Text(in.DisplayName, MaxDisplayName),
		Bio:           Text(in.Bio, MaxBio),
		PhotoURL:      URL(in.PhotoURL, MaxURL),
		Socials:       Socials(in.Socials),
		Blocks:        Blocks(in.Blocks),
		Background:    Background(in.Background),
		Styles:        Styles(in.Styles),
		LayerOrder:    LayerOrder(in.LayerOrder),
		CustomButtons: CustomButtons(in.CustomButtons),
	}
}

// Socials keeps whitelisted keys whose values are non-empty strings
func Socials(in map[string]interface{}) map[string]string {
	out := map[string]string{}
	for k, v := range in {
		key := strings.ToLower(strings.TrimSpace(k))
		if !socialKeys.Contains(key) {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = Text(s, MaxSocialValue); s != "" {
			out[key] = s
		}
	}
	return out
}

// Blocks caps the list and type-switches every block, dropping blocks that
// are empty once sanitized
func Blocks(in []models.Block) []models.Block {
	if len(in) > MaxBlocks {
		in = in[:MaxBlocks]
	}
	out := make([]models.Block, 0, len(in))
	for i, b := range in {
		typ := strings.ToLower(strings.TrimSpace(b.Type))
		if !blockTypes.Contains(typ) {
			continue
		}
		id := Text(b.ID, MaxID)
		if id == "" {
			id = fmt.Sprintf("block-%d", i)
		}
		clean := models.Block{ID: id, Type: typ}
		switch typ {
		case "text":
			clean.Content = Text(b.Content, MaxBlockText)
			if clean.Content == "" {
				continue
			}
		case "image":
			clean.URL = URL(b.URL, MaxURL)
			clean.Caption = Text(b.Caption, MaxBlockTitle)
			if clean.URL == "" {
				continue
			}
		case "video":
			clean.URL = URL(b.URL, MaxURL)
			clean.Title = Text(b.Title, MaxBlockTitle)
			if clean.URL == "" {
				continue
			}
		case "link":
			clean.URL = URL(b.URL, MaxURL)
			clean.Title = Text(b.Title, MaxBlockTitle)
			if clean.URL == "" {
				continue
			}
		}
		out = append(out, clean)
	}
	return out
}

// Background whitelists the background type and pattern
func Background(in *models.Background) models.Background {
	if in == nil {
		return defaultBackground
	}
	out := models.Background{
		Type:    oneOf(in.Type, backgroundTypes, defaultBackground.Type),
		Pattern: oneOf(in.Pattern, patterns, defaultBackground.Pattern),
	}
	switch out.Type {
	case "image":
		out.Value = URL(in.Value, MaxURL)
		if out.Value == "" {
			return defaultBackground
		}
	case "color":
		out.Value = color(in.Value, defaultBackground.Value)
	default:
		out.Value = Text(in.Value, MaxURL)
	}
	return out
}

// Styles whitelists the style choices and validates the hex colors
func Styles(in *models.Styles) models.Styles {
	if in == nil {
		return defaultStyles
	}
	return models.Styles{
		Theme:       oneOf(in.Theme, themes, defaultStyles.Theme),
		Font:        oneOf(in.Font, fonts, defaultStyles.Font),
		ButtonStyle: oneOf(in.ButtonStyle, buttonStyles, defaultStyles.ButtonStyle),
		TextColor:   color(in.TextColor, ""),
		ButtonColor: color(in.ButtonColor, ""),
	}
}

func color(v, fallback string) string {
	v = strings.TrimSpace(v)
	if colorPattern.MatchString(v) {
		return strings.ToLower(v)
	}
	return fallback
}

// LayerOrder deduplicates in against the known layers. An empty result
// yields the default order.
func LayerOrder(in []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(DefaultLayers))
	for _, l := range in {
		l = strings.ToLower(strings.TrimSpace(l))
		if !layerNames.Contains(l) || !seen.Add(l) {
			continue
		}
		out = append(out, l)
	}
	if len(out) == 0 {
		return append(out, DefaultLayers...)
	}
	return out
}

// CustomButtons caps the list and drops buttons without a label or a valid URL
func CustomButtons(in []models.CustomButton) []models.CustomButton {
	if len(in) > MaxCustomButtons {
		in = in[:MaxCustomButtons]
	}
	out := make([]models.CustomButton, 0, len(in))
	for _, b := range in {
		clean := models.CustomButton{
			Label: Text(b.Label, MaxButtonLabel),
			URL:   URL(b.URL, MaxURL),
			Icon:  Text(b.Icon, MaxIcon),
		}
		if clean.Label == "" || clean.URL == "" {
			continue
		}
		out = append(out, clean)
	}
	return out
}
