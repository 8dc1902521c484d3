// Package configform is the credential entry form that gates the gallery.
// It only checks that every field is present; key, region and bucket formats
// are left for the storage provider to reject.
package configform

import (
	"context"
	"strings"

	"github.com/koustreak/bucketgallery/internal/credentials"
	"github.com/koustreak/bucketgallery/internal/errs"
)

// DefaultRegion pre-fills the region field.
const DefaultRegion = "us-east-1"

// Field describes one form input.
type Field struct {
	Name   string // JSON / form name, e.g. "accessKeyId"
	Label  string
	Secret bool
	Hint   string
}

// Fields lists the inputs in display order.
var Fields = []Field{
	{Name: "accessKeyId", Label: "Access Key ID", Secret: true, Hint: "AKIA..."},
	{Name: "secretAccessKey", Label: "Secret Access Key", Secret: true, Hint: "Enter secret access key"},
	{Name: "region", Label: "Region", Hint: DefaultRegion},
	{Name: "bucketName", Label: "Bucket Name", Hint: "my-image-bucket"},
}

// Form holds the submitted values.
type Form struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
}

// FromCredentials pre-fills a form; a nil record yields an empty form with
// the default region.
func FromCredentials(c *credentials.Credentials) Form {
	if c == nil {
		return Form{Region: DefaultRegion}
	}
	f := Form{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		Region:          c.Region,
		BucketName:      c.BucketName,
	}
	if f.Region == "" {
		f.Region = DefaultRegion
	}
	return f
}

// Get returns the value of the named field.
func (f Form) Get(name string) string {
	switch name {
	case "accessKeyId":
		return f.AccessKeyID
	case "secretAccessKey":
		return f.SecretAccessKey
	case "region":
		return f.Region
	case "bucketName":
		return f.BucketName
	}
	return ""
}

// Set assigns the named field. Unknown names are ignored.
func (f *Form) Set(name, value string) {
	switch name {
	case "accessKeyId":
		f.AccessKeyID = value
	case "secretAccessKey":
		f.SecretAccessKey = value
	case "region":
		f.Region = value
	case "bucketName":
		f.BucketName = value
	}
}

// Credentials returns the trimmed record the form describes.
func (f Form) Credentials() credentials.Credentials {
	return credentials.Credentials{
		AccessKeyID:     strings.TrimSpace(f.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(f.SecretAccessKey),
		Region:          strings.TrimSpace(f.Region),
		BucketName:      strings.TrimSpace(f.BucketName),
	}
}

// ValidationError lists the empty fields of a rejected form.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "please fill in all required fields: " + strings.Join(e.Missing, ", ")
}

// Validate returns an errs.ErrKindValidation error wrapping *ValidationError
// when any field is blank.
func (f Form) Validate() error {
	creds := f.Credentials()
	missing := creds.Missing()
	if len(missing) == 0 {
		return nil
	}
	labels := make([]string, len(missing))
	for i, name := range missing {
		labels[i] = label(name)
	}
	verr := &ValidationError{Missing: labels}
	return errs.Wrap(errs.ErrKindValidation, "invalid configuration", verr)
}

// Submit validates f and, only if it is complete, saves it to store.
func Submit(ctx context.Context, store credentials.Store, f Form) (credentials.Credentials, error) {
	if err := f.Validate(); err != nil {
		return credentials.Credentials{}, err
	}
	creds := f.Credentials()
	if err := store.Save(ctx, creds); err != nil {
		return credentials.Credentials{}, err
	}
	return creds, nil
}

func label(name string) string {
	for _, fld := range Fields {
		if fld.Name == name {
			return fld.Label
		}
	}
	return name
}
