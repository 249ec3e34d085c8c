package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type configureResponse struct {
	Status string `json:"status"`
	Media  struct {
		ID   string      `json:"id"`
		PK   json.Number `json:"pk"`
		Code string      `json:"code"`
	} `json:"media"`
}

// PublishVideo uploads video and its cover image and creates a feed post
// with caption. It returns the new media id.
func (s *Session) PublishVideo(ctx context.Context, video, cover []byte, caption string) (string, error) {
	if len(video) == 0 {
		return "", errors.New("instagram publish: empty video")
	}
	if len(cover) == 0 {
		cover = video
	}
	uploadID := newUploadID(time.Now())

	if err := s.uploadVideo(ctx, uploadID, video); err != nil {
		return "", err
	}
	if err := s.uploadCover(ctx, uploadID, cover); err != nil {
		return "", err
	}

	finish := map[string]string{
		"upload_id":   uploadID,
		"source_type": "4",
		"_uuid":       s.device.UUID,
		"device_id":   s.device.DeviceID,
	}
	if _, err := s.postSigned(ctx, "/api/v1/media/upload_finish/?video=1", finish, nil); err != nil {
		return "", err
	}

	configure := map[string]string{
		"upload_id":   uploadID,
		"caption":     caption,
		"source_type": "4",
		"_uuid":       s.device.UUID,
		"_uid":        s.userID,
		"device_id":   s.device.DeviceID,
	}
	var resp configureResponse
	if _, err := s.postSigned(ctx, "/api/v1/media/configure/?video=1", configure, &resp); err != nil {
		return "", err
	}
	if resp.Media.ID != "" {
		return resp.Media.ID, nil
	}
	if pk := resp.Media.PK.String(); pk != "" {
		return pk, nil
	}
	return "", errors.New("instagram publish: response carried no media id")
}

func (s *Session) uploadVideo(ctx context.Context, uploadID string, video []byte) error {
	name := uploadID + "_0_" + strconv.FormatInt(int64(uuid.New().ID()), 10)
	params, err := json.Marshal(map[string]string{
		"upload_id":                uploadID,
		"media_type":               "2",
		"xsharing_user_ids":        "[]",
		"upload_media_duration_ms": "0",
		"upload_media_width":       "1024",
		"upload_media_height":      "576",
	})
	if err != nil {
		return fmt.Errorf("instagram upload video: encode params: %w", err)
	}
	req, err := s.newRequest(ctx, http.MethodPost, "/rupload_igvideo/"+name, bytes.NewReader(video))
	if err != nil {
		return fmt.Errorf("instagram upload video: build request: %w", err)
	}
	req.Header.Set("X-Instagram-Rupload-Params", string(params))
	req.Header.Set("X_FB_VIDEO_WATERFALL_ID", uuid.NewString())
	req.Header.Set("X-Entity-Type", "video/mp4")
	req.Header.Set("X-Entity-Name", name)
	req.Header.Set("X-Entity-Length", strconv.Itoa(len(video)))
	req.Header.Set("Offset", "0")
	req.Header.Set("Content-Type", "application/octet-stream")
	_, err = s.do(req, nil)
	return err
}

func (s *Session) uploadCover(ctx context.Context, uploadID string, cover []byte) error {
	name := uploadID + "_0_" + strconv.FormatInt(int64(uuid.New().ID()), 10)
	params, err := json.Marshal(map[string]string{
		"upload_id":         uploadID,
		"media_type":        "2",
		"image_compression": `{"lib_name":"moz","lib_version":"3.1.m","quality":"80"}`,
	})
	if err != nil {
		return fmt.Errorf("instagram upload cover: encode params: %w", err)
	}
	req, err := s.newRequest(ctx, http.MethodPost, "/rupload_igphoto/"+name, bytes.NewReader(cover))
	if err != nil {
		return fmt.Errorf("instagram upload cover: build request: %w", err)
	}
	req.Header.Set("X-Instagram-Rupload-Params", string(params))
	req.Header.Set("X-Entity-Type", "image/jpeg")
	req.Header.Set("X-Entity-Name", name)
	req.Header.Set("X-Entity-Length", strconv.Itoa(len(cover)))
	req.Header.Set("Offset", "0")
	req.Header.Set("Content-Type", "application/octet-stream")
	_, err = s.do(req, nil)
	return err
}
