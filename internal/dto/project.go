package dto

import (
	"storyreel/internal/studio"
	"storyreel/internal/types"

	"github.com/samber/lo"
)

// Request payloads

type AssignImageReq struct {
	ImageID string `json:"image_id" binding:"required"`
}

type SeekReq struct {
	Time float64 `json:"time"`
}

type TimeUpdateReq struct {
	Time float64 `json:"time"`
}

type TimelineDropReq struct {
	X       float64 `json:"x"`
	ImageID string  `json:"image_id" binding:"required"`
}

// Response payloads

type SegmentData struct {
	ID              string  `json:"id"`
	StartTime       float64 `json:"start_time"`
	EndTime         float64 `json:"end_time"`
	Text            string  `json:"text"`
	VisualPrompt    string  `json:"visual_prompt"`
	Emotion         string  `json:"emotion"`
	AssignedImageID string  `json:"assigned_image_id,omitempty"`
}

type ImageData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

type UploadAudioData struct {
	AudioURL string  `json:"audio_url"`
	Duration float64 `json:"duration"`
	Status   string  `json:"status"`
}

type AddImagesData struct {
	Added      []ImageData `json:"added"`
	AutoFilled int         `json:"auto_filled"`
}

type AssignImageData struct {
	Assigned bool `json:"assigned"`
}

type TimelineDropData struct {
	Assigned  bool   `json:"assigned"`
	SegmentID string `json:"segment_id,omitempty"`
}

type ProjectStatusData struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ProjectData struct {
	Status          string        `json:"status"`
	StatusMsg       string        `json:"status_msg,omitempty"`
	AudioURL        string        `json:"audio_url,omitempty"`
	AudioName       string        `json:"audio_name,omitempty"`
	Duration        float64       `json:"duration"`
	CurrentTime     float64       `json:"current_time"`
	Playback        string        `json:"playback"`
	Segments        []SegmentData `json:"segments"`
	Gallery         []ImageData   `json:"gallery"`
	ActiveSegmentID string        `json:"active_segment_id,omitempty"`
	CurrentImageID  string        `json:"current_image_id,omitempty"`
}

type PlaybackData struct {
	Time          float64      `json:"time"`
	State         string       `json:"state"`
	ActiveSegment *SegmentData `json:"active_segment,omitempty"`
	CurrentImage  *ImageData   `json:"current_image,omitempty"`
}

func SegmentDataFrom(seg types.Segment) SegmentData {
	return SegmentData{
		ID:              seg.ID,
		StartTime:       seg.StartTime,
		EndTime:         seg.EndTime,
		Text:            seg.Text,
		VisualPrompt:    seg.VisualPrompt,
		Emotion:         seg.Emotion,
		AssignedImageID: seg.AssignedImageID,
	}
}

func ImageDataFrom(img types.GalleryImage) ImageData {
	return ImageData{
		ID:       img.ID,
		Name:     img.Name,
		URL:      img.URL,
		MimeType: img.MimeType,
		Size:     img.Size,
	}
}

func SegmentsDataFrom(segments []types.Segment) []SegmentData {
	return lo.Map(segments, func(seg types.Segment, _ int) SegmentData {
		return SegmentDataFrom(seg)
	})
}

func GalleryDataFrom(gallery []types.GalleryImage) []ImageData {
	return lo.Map(gallery, func(img types.GalleryImage, _ int) ImageData {
		return ImageDataFrom(img)
	})
}

// ProjectDataFrom flattens a project snapshot for the API, resolving the
// active segment and its image at the snapshot's playback position.
func ProjectDataFrom(snap types.Project) ProjectData {
	data := ProjectData{
		Status:      snap.Status.String(),
		StatusMsg:   snap.StatusMsg,
		AudioURL:    snap.AudioURL,
		AudioName:   snap.AudioName,
		Duration:    snap.Duration,
		CurrentTime: snap.CurrentTime,
		Playback:    snap.Playback.String(),
		Segments:    SegmentsDataFrom(snap.Segments),
		Gallery:     GalleryDataFrom(snap.Gallery),
	}
	if seg, ok := studio.ActiveSegmentIn(snap.Segments, snap.CurrentTime); ok {
		data.ActiveSegmentID = seg.ID
		if img, found := studio.ImageByID(snap.Gallery, seg.AssignedImageID); found {
			data.CurrentImageID = img.ID
		}
	}
	return data
}

func PlaybackDataFrom(view studio.PlaybackView) PlaybackData {
	data := PlaybackData{
		Time:  view.Time,
		State: view.State.String(),
	}
	if view.ActiveSegment != nil {
		seg := SegmentDataFrom(*view.ActiveSegment)
		data.ActiveSegment = &seg
	}
	if view.CurrentImage != nil {
		img := ImageDataFrom(*view.CurrentImage)
		data.CurrentImage = &img
	}
	return data
}
