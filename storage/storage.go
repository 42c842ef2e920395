// Package storage wraps the object store that holds page images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/lengapp/leng-api/config"
)

// TicketTTL is how long a signed upload ticket is honoured
const TicketTTL = time.Hour

// ErrDisabled is returned by every operation of a store that is not configured
var ErrDisabled = errors.New("object store not configured")

// UploadTicket lets a client upload one object directly to the store
type UploadTicket struct {
	UploadURL string    `json:"uploadUrl"`
	APIKey    string    `json:"apiKey"`
	Timestamp int64     `json:"timestamp"`
	Signature string    `json:"signature"`
	PublicID  string    `json:"publicId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ObjectStore issues upload tickets and manages stored objects
type ObjectStore interface {
	Presign(publicID string, now time.Time) (UploadTicket, error)
	URL(publicID string) (string, error)
	Delete(ctx context.Context, publicID string) error
}

type cloudinaryStore struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	apiKey    string
	apiSecret string
}

// New returns a Cloudinary backed store, or a disabled store when Cloudinary
// is not configured
func New(conf config.CloudinaryConfig) (ObjectStore, error) {
	if !conf.Enabled() {
		return Disabled{}, nil
	}
	cld, err := cloudinary.NewFromParams(conf.CloudName, conf.APIKey, conf.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &cloudinaryStore{cld: cld, cloudName: conf.CloudName, apiKey: conf.APIKey, apiSecret: conf.APISecret}, nil
}

func (s *cloudinaryStore) Presign(publicID string, now time.Time) (UploadTicket, error) {
	ts := now.Unix()
	params := url.Values{}
	params.Set("public_id", publicID)
	params.Set("timestamp", strconv.FormatInt(ts, 10))
	signature, err := api.SignParameters(params, s.apiSecret)
	if err != nil {
		return UploadTicket{}, err
	}
	return UploadTicket{
		UploadURL: fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", s.cloudName),
		APIKey:    s.apiKey,
		Timestamp: ts,
		Signature: signature,
		PublicID:  publicID,
		ExpiresAt: now.Add(TicketTTL),
	}, nil
}

func (s *cloudinaryStore) URL(publicID string) (string, error) {
	img, err := s.cld.Image(publicID)
	if err != nil {
		return "", err
	}
	return img.String()
}

func (s *cloudinaryStore) Delete(ctx context.Context, publicID string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return errors.New(res.Error.Message)
	}
	return nil
}

// Disabled is the store used when uploads are not configured
type Disabled struct{}

// Presign always fails with ErrDisabled
func (Disabled) Presign(string, time.Time) (UploadTicket, error) { return UploadTicket{}, ErrDisabled }

// URL always fails with ErrDisabled
func (Disabled) URL(string) (string, error) { return "", ErrDisabled }

// Delete always fails with ErrDisabled
func (Disabled) Delete(context.Context, string) error { return ErrDisabled }
