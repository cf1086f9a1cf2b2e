package service

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretManagerService reads secret values from Google Secret Manager.
type SecretManagerService interface {
	// Resolve accepts a full version name
	// (projects/p/secrets/s/versions/v) or a bare secret id, which is read
	// at its latest version in the default project.
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, projectID string, opts ...option.ClientOption) (SecretManagerService, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretManagerService{
		client:    client,
		projectID: projectID,
	}, nil
}

func (s *secretManagerService) Resolve(ctx context.Context, ref string) (string, error) {
	name, err := secretVersionName(s.projectID, ref)
	if err != nil {
		return "", err
	}

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}

	return strings.TrimSpace(string(result.Payload.Data)), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}

func secretVersionName(projectID, ref string) (string, error) {
	ref = strings.Trim(ref, "/")
	switch {
	case ref == "":
		return "", fmt.Errorf("empty secret reference")
	case strings.HasPrefix(ref, "projects/"):
		parts := strings.Split(ref, "/")
		switch len(parts) {
		case 4:
			return ref + "/versions/latest", nil
		case 6:
			return ref, nil
		}
		return "", fmt.Errorf("malformed secret reference %q", ref)
	case strings.Contains(ref, "/"):
		return "", fmt.Errorf("malformed secret reference %q", ref)
	case projectID == "":
		return "", fmt.Errorf("secret %q needs GCP_PROJECT_ID to be set", ref)
	default:
		return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, ref), nil
	}
}
