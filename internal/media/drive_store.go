package media

import (
	"bytes"
	"context"
	"fmt"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveStore keeps images in a Google Drive folder shared through a
// service account. References are Drive file ids.
type DriveStore struct {
	client   *drive.Service
	folderID string
}

// NewDriveStore authenticates with the service account JSON at credentialsPath.
func NewDriveStore(ctx context.Context, credentialsPath, folderID string) (*DriveStore, error) {
	client, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveStore{client: client, folderID: folderID}, nil
}

func (s *DriveStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	f, err := s.client.Files.Create(&drive.File{
		Name:     name,
		Parents:  []string{s.folderID},
		MimeType: "image/jpeg",
	}).Media(bytes.NewReader(data)).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}

	// storefront visitors fetch images anonymously
	_, err = s.client.Permissions.Create(f.Id, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).Context(ctx).Do()
	if err != nil {
		_ = s.client.Files.Delete(f.Id).Context(ctx).Do()
		return "", fmt.Errorf("share %s: %w", name, err)
	}
	return f.Id, nil
}

func (s *DriveStore) Delete(ctx context.Context, ref string) error {
	err := s.client.Files.Delete(ref).Context(ctx).Do()
	if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 404 {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	return nil
}

func (s *DriveStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return fmt.Sprintf("https://drive.google.com/uc?id=%s", ref)
}
