// Package studio owns the single editing project: the segment list produced
// by narration analysis, the image gallery, image-to-segment assignments and
// the playback clock. All state lives in memory; segments reset with each
// narration upload while the gallery only ever grows.
package studio

import (
	"storyreel/internal/types"

	"github.com/google/uuid"
)

func newProject() *types.Project {
	return &types.Project{
		Status:   types.StatusIdle,
		Playback: types.PlaybackIdle,
	}
}

// mintSegments turns analyzer drafts into stored segments, preserving the
// draft order verbatim and giving each segment a stable id.
func mintSegments(drafts []types.SegmentDraft) []types.Segment {
	segments := make([]types.Segment, 0, len(drafts))
	for _, d := range drafts {
		segments = append(segments, types.Segment{
			ID:           uuid.NewString(),
			StartTime:    d.StartTime,
			EndTime:      d.EndTime,
			Text:         d.Text,
			VisualPrompt: d.VisualDescription,
			Emotion:      d.Emotion,
		})
	}
	return segments
}

// autoFill assigns gallery images round-robin to every segment that has no
// image yet: segment i gets gallery[i mod len(gallery)]. Explicit assignments
// are never overwritten. Returns how many segments were filled.
func autoFill(p *types.Project) int {
	if len(p.Segments) == 0 || len(p.Gallery) == 0 {
		return 0
	}
	filled := 0
	for i := range p.Segments {
		if p.Segments[i].AssignedImageID != "" {
			continue
		}
		p.Segments[i].AssignedImageID = p.Gallery[i%len(p.Gallery)].ID
		filled++
	}
	return filled
}

// assignImage binds one image to one segment. Unknown segment ids are a
// silent no-op so stale drag targets never surface as errors.
func assignImage(p *types.Project, segmentID, imageID string) bool {
	for i := range p.Segments {
		if p.Segments[i].ID == segmentID {
			p.Segments[i].AssignedImageID = imageID
			return true
		}
	}
	return false
}

// ActiveSegmentIn returns the first segment whose half-open window contains t.
// Listing order decides ties when timings overlap; a gap yields no segment.
func ActiveSegmentIn(segments []types.Segment, t float64) (types.Segment, bool) {
	for _, seg := range segments {
		if seg.Contains(t) {
			return seg, true
		}
	}
	return types.Segment{}, false
}

// ImageByID looks an image up in the gallery. Dangling references resolve to
// not-found rather than an error.
func ImageByID(gallery []types.GalleryImage, id string) (types.GalleryImage, bool) {
	if id == "" {
		return types.GalleryImage{}, false
	}
	for _, img := range gallery {
		if img.ID == id {
			return img, true
		}
	}
	return types.GalleryImage{}, false
}

// releasablePaths collects every file the project holds on disk, for cleanup
// when the project is replaced or cleared.
func releasablePaths(p *types.Project) []string {
	var paths []string
	if p.AudioPath != "" {
		paths = append(paths, p.AudioPath)
	}
	for _, img := range p.Gallery {
		if img.Path != "" {
			paths = append(paths, img.Path)
		}
	}
	return paths
}

func copySegments(segments []types.Segment) []types.Segment {
	out := make([]types.Segment, len(segments))
	copy(out, segments)
	return out
}

func copyGallery(gallery []types.GalleryImage) []types.GalleryImage {
	out := make([]types.GalleryImage, len(gallery))
	copy(out, gallery)
	return out
}
