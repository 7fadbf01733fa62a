package identity

import "github.com/courtsight/courtsight/internal/domain/model"

// mergeMaxCenterDistance is the largest bbox-centroid gap (pixels) at which
// two detections from independent passes are considered the same person.
const mergeMaxCenterDistance = 50.0

// MergeJerseyDetections copies player identities from a jersey-tagged
// detection stream onto the base person-detection stream. The two streams may
// come from independent passes over the same frames, so association is by
// frame index and nearest bbox centroid. The input slices are not mutated and
// the merge is idempotent: merging the result with the same tagged stream
// again yields identical output.
func MergeJerseyDetections(base, tagged []model.FrameDetectionSet) []model.FrameDetectionSet {
	taggedByFrame := make(map[int][]model.PersonDetection, len(tagged))
	for _, set := range tagged {
		taggedByFrame[set.FrameIndex] = set.Detections
	}

	out := make([]model.FrameDetectionSet, len(base))
	for i, set := range base {
		merged := set
		merged.Detections = make([]model.PersonDetection, len(set.Detections))
		copy(merged.Detections, set.Detections)

		candidates := taggedByFrame[set.FrameIndex]
		for di := range merged.Detections {
			if id, ok := nearestIdentity(merged.Detections[di].BBox, candidates); ok {
				merged.Detections[di].PlayerID = id
			}
		}
		out[i] = merged
	}
	return out
}

// nearestIdentity finds the closest identity-bearing detection within the
// association radius.
func nearestIdentity(box model.BBox, candidates []model.PersonDetection) (string, bool) {
	bestID := ""
	bestDist := mergeMaxCenterDistance
	for _, c := range candidates {
		if c.PlayerID == "" {
			continue
		}
		if d := box.CenterDistance(c.BBox); d < bestDist {
			bestDist = d
			bestID = c.PlayerID
		}
	}
	return bestID, bestID != ""
}
