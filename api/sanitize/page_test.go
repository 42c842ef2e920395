package sanitize

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/lengapp/leng-api/models"
)

func TestPageCapsBlocksAt20(t *testing.T) {
	blocks := make([]models.Block, 25)
	for i := range blocks {
		blocks[i] = models.Block{ID: fmt.Sprintf("b%d", i), Type: "text", Content: "hello"}
	}
	p := Page(PageInput{Blocks: blocks})
	assert.Len(t, p.Blocks, 20)
	assert.Equal(t, "b19", p.Blocks[19].ID)
}

func TestPageSanitizesFields(t *testing.T) {
	in := PageInput{
		DisplayName: "  " + strings.Repeat("x", 150) + " ",
		Bio:         " hi ",
		PhotoURL:    "javascript:alert(1)",
		Socials: map[string]interface{}{
			"Instagram": " @alice ",
			"myspace":   "nope",
			"github":    42,
			"website":   "",
		},
		Blocks: []models.Block{
			{Type: "TEXT", Content: " hey ", URL: "https://dropped.example"},
			{Type: "script", Content: "x"},
			{Type: "image", URL: "ftp://x"},
			{ID: "v", Type: "video", URL: "https://youtu.be/x", Title: "clip"},
		},
		Background:    &models.Background{Type: "plasma", Value: "red", Pattern: "dots"},
		Styles:        &models.Styles{Theme: "DARK", Font: "comic", ButtonStyle: "pill", TextColor: "#FFF", ButtonColor: "blue"},
		LayerOrder:    []string{"polls", "bogus", "polls", "profile"},
		CustomButtons: []models.CustomButton{{Label: "Shop", URL: "https://shop.example"}, {Label: "", URL: "https://x.example"}},
	}
	want := models.Page{
		DisplayName: strings.Repeat("x", 100),
		Bio:         "hi",
		Socials:     map[string]string{"instagram": "@alice"},
		Blocks: []models.Block{
			{ID: "block-0", Type: "text", Content: "hey"},
			{ID: "v", Type: "video", URL: "https://youtu.be/x", Title: "clip"},
		},
		Background:    models.Background{Type: "color", Value: "#ffffff", Pattern: "dots"},
		Styles:        models.Styles{Theme: "dark", Font: "inter", ButtonStyle: "pill", TextColor: "#fff"},
		LayerOrder:    []string{"polls", "profile"},
		CustomButtons: []models.CustomButton{{Label: "Shop", URL: "https://shop.example"}},
	}
	if diff := cmp.Diff(want, Page(in)); diff != "" {
		t.Errorf("Page() mismatch (-want +got):\n%s", diff)
	}
}

func TestPageDefaults(t *testing.T) {
	p := Page(PageInput{})
	assert.Equal(t, defaultStyles, p.Styles)
	assert.Equal(t, defaultBackground, p.Background)
	assert.Equal(t, DefaultLayers, p.LayerOrder)
	assert.Equal(t, map[string]string{}, p.Socials)
	assert.Equal(t, []models.Block{}, p.Blocks)
}

func TestPageIsIdempotent(t *testing.T) {
	in := PageInput{
		DisplayName: " Alice ",
		Socials:     map[string]interface{}{"twitter": " @a "},
		Blocks:      []models.Block{{Type: "link", URL: "https://a.example", Title: " A "}},
		Background:  &models.Background{Type: "image", Value: "https://img.example/bg.png"},
		LayerOrder:  []string{"blocks"},
	}
	once := Page(in)

	socials := map[string]interface{}{}
	for k, v := range once.Socials {
		socials[k] = v
	}
	twice := Page(PageInput{
		DisplayName:   once.DisplayName,
		Bio:           once.Bio,
		PhotoURL:      once.PhotoURL,
		Socials:       socials,
		Blocks:        once.Blocks,
		Background:    &once.Background,
		Styles:        &once.Styles,
		LayerOrder:    once.LayerOrder,
		CustomButtons: once.CustomButtons,
	})
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("sanitizing twice changed the page (-once +twice):\n%s", diff)
	}
}

func TestOwnerSetOnlyTouchesOwnerFields(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	set := OwnerSet(Page(PageInput{DisplayName: "A"}), now)
	assert.Equal(t, now, set["updatedAt"])
	for field := range set {
		if field == "updatedAt" {
			continue
		}
		assert.Equal(t, OwnerWritable, PageFields[field], field)
	}
	for _, field := range []string{"pollIds", "questionIds", "vitrin", "views", "verified", "suspended", "uid"} {
		assert.NotContains(t, set, field)
	}
}

func TestStaleAssets(t *testing.T) {
	prev := models.Page{
		PhotoURL:           "https://cdn.example.com/a",
		PhotoPublicID:      "leng/alice/avatar-1",
		Background:         models.Background{Type: "image", Value: "https://cdn.example.com/bg"},
		BackgroundPublicID: "leng/alice/bg-1",
	}
	cases := []struct {
		name string
		next models.Page
		want map[string]string
	}{
		{"unchanged", prev, map[string]string{}},
		{"photo replaced", models.Page{PhotoURL: "https://x.example.com/p", Background: prev.Background},
			map[string]string{"photoPublicId": "leng/alice/avatar-1"}},
		{"background now a color", models.Page{PhotoURL: prev.PhotoURL, Background: models.Background{Type: "color", Value: "#000000"}},
			map[string]string{"backgroundPublicId": "leng/alice/bg-1"}},
		{"both cleared", models.Page{},
			map[string]string{"photoPublicId": "leng/alice/avatar-1", "backgroundPublicId": "leng/alice/bg-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, StaleAssets(prev, tc.next)); diff != "" {
				t.Errorf("StaleAssets mismatch (-want +got):\n%s", diff)
			}
		})
	}
	assert.Empty(t, StaleAssets(models.Page{PhotoURL: "https://a.example.com"}, models.Page{}))
}

func TestAdminSet(t *testing.T) {
	now := time.Now()
	set, err := AdminSet(map[string]interface{}{"suspended": true}, now)
	assert.NoError(t, err)
	assert.Equal(t, true, set["suspended"])

	_, err = AdminSet(map[string]interface{}{"bio": "x"}, now)
	assert.Error(t, err)
	_, err = AdminSet(map[string]interface{}{"views": 1}, now)
	assert.Error(t, err)
	_, err = AdminSet(nil, now)
	assert.Error(t, err)
}

func TestVitrin(t *testing.T) {
	products := make([]models.VitrinProduct, 35)
	for i := range products {
		products[i] = models.VitrinProduct{ID: fmt.Sprintf("p%d", i), Name: "Mug", PriceCents: 500}
	}
	products[1].ID = "p0"
	products[2].Name = " "
	products[3].ImageURL = "data:image/png;base64,xx"

	v, err := Vitrin(models.Vitrin{Enabled: true, Title: " Shop ", Products: products})
	assert.NoError(t, err)
	assert.Equal(t, "Shop", v.Title)
	assert.Len(t, v.Products, 28)
	assert.Equal(t, "", v.Products[1].ImageURL)

	_, err = Vitrin(models.Vitrin{Products: []models.VitrinProduct{{Name: "x", PriceCents: -1}}})
	assert.ErrorIs(t, err, ErrNegativePrice)
}
