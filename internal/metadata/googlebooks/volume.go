package googlebooks

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/url"
)

// GetVolume retrieves a single volume by its source identifier.
func (c *Client) GetVolume(ctx context.Context, volumeID string) (*Volume, error) {
	if volumeID == "" {
		return nil, wrapError("getVolume", volumeID, ErrBadRequest)
	}

	body, err := c.doRequest(ctx, "/volumes/"+url.PathEscape(volumeID), url.Values{})
	if err != nil {
		return nil, wrapError("getVolume", volumeID, err)
	}

	var raw rawVolume
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, wrapError("getVolume", volumeID, fmt.Errorf("parse response: %w", err))
	}

	vol := volumeToRecord(&raw)
	return &vol, nil
}
