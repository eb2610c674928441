package backend

import (
	"context"
	"fmt"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/extract"
)

// RemoteStrategy forwards the blob to the processing endpoint as a
// last-resort extraction step before the raw scrape.
type RemoteStrategy struct {
	client   *Client
	mimeType string
}

// NewRemoteStrategy builds a strategy that uploads blobs with the given MIME
// type.
func NewRemoteStrategy(client *Client, mimeType string) *RemoteStrategy {
	return &RemoteStrategy{client: client, mimeType: mimeType}
}

func (s *RemoteStrategy) Method() extract.Method {
	return extract.MethodRemote
}

// Extract uploads the blob and maps the endpoint's typed response onto an
// extraction result. Error and unavailable responses surface as errors so the
// pipeline moves on to the next strategy.
func (s *RemoteStrategy) Extract(ctx context.Context, blob []byte, fileName string) (*extract.Result, error) {
	resp, err := s.client.Process(ctx, blob, fileName, s.mimeType)
	if err != nil {
		return nil, err
	}

	switch resp.Type {
	case TypeText:
		return &extract.Result{
			Content:   resp.Text,
			PlainText: resp.Text,
			Method:    extract.MethodRemote,
			Succeeded: true,
		}, nil
	case TypeInfo:
		return &extract.Result{
			Content:   resp.Message,
			PlainText: resp.Message,
			Method:    extract.MethodRemote,
			Succeeded: true,
			Warnings:  []string{"server-side processing returned informational content only"},
		}, nil
	case TypeProcessingUnavailable:
		return nil, fmt.Errorf("server-side processing unavailable: %s", resp.Message)
	default:
		return nil, fmt.Errorf("server-side processing failed: %s", resp.Message)
	}
}
