package heuristic

import (
	"fmt"

	"github.com/RaparthiSrikar/CityAssist/internal/model"
)

// ImageTriage classifies a decoded grayscale image by brightness and
// aspect ratio: bright scenes read as garbage, tall frames as fallen
// trees, dark scenes as potholes.
func ImageTriage(meanBrightness float64, width, height int) model.ImageTriageResponse {
	var label, priority string
	switch {
	case meanBrightness > 160:
		label, priority = "garbage", "low"
	case float64(height) > float64(width)*1.2:
		label, priority = "tree_fall", "high"
	case meanBrightness < 80:
		label, priority = "pothole", "high"
	default:
		label, priority = "other", "normal"
	}

	return model.ImageTriageResponse{
		Label:    label,
		Priority: priority,
		Reason:   fmt.Sprintf("Heuristic: mean_brightness=%.1f, size=%dx%d", meanBrightness, width, height),
	}
}
