package sanitize

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/lengapp/leng-api/models"
)

// FieldPolicy says who may write a page field
type FieldPolicy int

// Field policies
const (
	OwnerWritable FieldPolicy = iota
	SystemManaged
	AdminOnly
)

func (p FieldPolicy) String() string {
	switch p {
	case OwnerWritable:
		return "owner"
	case SystemManaged:
		return "system"
	case AdminOnly:
		return "admin"
	}
	return "unknown"
}

// PageFields lists every stored page field with its write policy
var PageFields = map[string]FieldPolicy{
	"displayName":   OwnerWritable,
	"bio":           OwnerWritable,
	"photoUrl":      OwnerWritable,
	"socials":       OwnerWritable,
	"blocks":        OwnerWritable,
	"background":    OwnerWritable,
	"styles":        OwnerWritable,
	"layerOrder":    OwnerWritable,
	"customButtons": OwnerWritable,

	"_id":                SystemManaged,
	"uid":                SystemManaged,
	"ownerEmail":         SystemManaged,
	"pollIds":            SystemManaged,
	"questionIds":        SystemManaged,
	"vitrin":             SystemManaged,
	"views":              SystemManaged,
	"photoPublicId":      SystemManaged,
	"backgroundPublicId": SystemManaged,
	"deletedAt":          SystemManaged,
	"deletedUid":         SystemManaged,
	"createdAt":          SystemManaged,
	"updatedAt":          SystemManaged,

	"verified":  AdminOnly,
	"suspended": AdminOnly,
}

// OwnerSet builds the $set document for an owner update from a sanitized
// page. Fields outside the owner policy are never included.
func OwnerSet(p models.Page, now time.Time) bson.M {
	values := bson.M{
		"displayName":   p.DisplayName,
		"bio":           p.Bio,
		"photoUrl":      p.PhotoURL,
		"socials":       p.Socials,
		"blocks":        p.Blocks,
		"background":    p.Background,
		"styles":        p.Styles,
		"layerOrder":    p.LayerOrder,
		"customButtons": p.CustomButtons,
	}
	set := bson.M{"updatedAt": now}
	for field, v := range values {
		if PageFields[field] == OwnerWritable {
			set[field] = v
		}
	}
	return set
}

// StaleAssets returns the uploaded objects of prev that next no longer shows,
// keyed by their public id field. Sanitized URLs are compared as stored.
func StaleAssets(prev, next models.Page) map[string]string {
	stale := map[string]string{}
	if prev.PhotoPublicID != "" && next.PhotoURL != prev.PhotoURL {
		stale["photoPublicId"] = prev.PhotoPublicID
	}
	if prev.BackgroundPublicID != "" && (next.Background.Type != "image" || next.Background.Value != prev.Background.Value) {
		stale["backgroundPublicId"] = prev.BackgroundPublicID
	}
	return stale
}

// AdminSet builds the $set document for an admin update. Every field must be
// AdminOnly.
func AdminSet(fields map[string]interface{}, now time.Time) (bson.M, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	set := bson.M{"updatedAt": now}
	for field, v := range fields {
		policy, ok := PageFields[field]
		if !ok || policy != AdminOnly {
			return nil, fmt.Errorf("field %q is not admin writable", field)
		}
		set[field] = v
	}
	return set, nil
}
