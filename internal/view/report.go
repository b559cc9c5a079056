// Package view holds the presentation shapes built from workflow snapshots.
package view

import (
	"cmp"
	"slices"

	"github.com/kozaktomas/face-compare/internal/compare"
	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/constants"
	"github.com/kozaktomas/face-compare/internal/preview"
)

// Band is a coarse similarity classification.
type Band string

// Band constants.
const (
	BandHigh    Band = "high"
	BandMedium  Band = "medium"
	BandLow     Band = "low"
	BandVeryLow Band = "very_low"
)

// BandFor classifies a similarity percentage.
func BandFor(similarity float64) Band {
	switch {
	case similarity >= constants.HighSimilarity:
		return BandHigh
	case similarity >= constants.MediumSimilarity:
		return BandMedium
	case similarity >= constants.LowSimilarity:
		return BandLow
	default:
		return BandVeryLow
	}
}

// Label returns the localized band name.
func (b Band) Label(msgs *config.Messages) string {
	switch b {
	case BandHigh:
		return msgs.BandHigh
	case BandMedium:
		return msgs.BandMedium
	case BandLow:
		return msgs.BandLow
	default:
		return msgs.BandVeryLow
	}
}

// Card is the presentation of one candidate result.
type Card struct {
	Number     int     `json:"number"` // 1-based
	ImageIndex int     `json:"image_index"`
	SourceName string  `json:"source_name,omitempty"`
	HasFace    bool    `json:"has_face"`
	Scored     bool    `json:"scored"`
	Similarity float64 `json:"similarity_percentage"`
	Band       Band    `json:"band,omitempty"`
	BandLabel  string  `json:"band_label,omitempty"`
	Message    string  `json:"message,omitempty"` // shown instead of a score
	ImageData  string  `json:"image_data,omitempty"`
}

// Report is the presentation of a successful comparison.
type Report struct {
	TotalImages      int     `json:"total_images"`
	ProcessingTime   float64 `json:"processing_time"`
	FacesDetected    int     `json:"faces_detected"`
	BaseImageHasFace bool    `json:"base_image_has_face"`
	BaseImageData    string  `json:"base_image_data,omitempty"`
	Cards            []Card  `json:"cards"`
}

// NewReport builds a report in submission order. names, when given, maps
// image_index to the candidate's file name.
func NewReport(resp *compare.Response, names []string, msgs *config.Messages) *Report {
	r := &Report{
		TotalImages:      resp.TotalImages,
		ProcessingTime:   resp.ProcessingTime,
		BaseImageHasFace: resp.BaseImageHasFace,
		BaseImageData:    resp.BaseImageData,
		Cards:            make([]Card, 0, len(resp.Results)),
	}

	for _, res := range resp.Results {
		card := Card{
			Number:     res.ImageIndex + 1,
			ImageIndex: res.ImageIndex,
			HasFace:    res.HasFace,
			Scored:     res.Scored(),
			ImageData:  res.ImageData,
		}
		if res.ImageIndex >= 0 && res.ImageIndex < len(names) {
			card.SourceName = names[res.ImageIndex]
		}
		if res.HasFace {
			r.FacesDetected++
		}

		switch {
		case card.Scored:
			card.Similarity = res.SimilarityPercentage
			card.Band = BandFor(res.SimilarityPercentage)
			card.BandLabel = card.Band.Label(msgs)
		case res.ErrorMessage != "":
			card.Message = res.ErrorMessage
		default:
			card.Message = msgs.NoFaceDetected
		}
		r.Cards = append(r.Cards, card)
	}

	slices.SortFunc(r.Cards, func(a, b Card) int {
		return cmp.Compare(a.ImageIndex, b.ImageIndex)
	})
	return r
}

// Ranked returns the cards ordered by similarity, best first. Unscored
// cards follow in submission order.
func (r *Report) Ranked() []Card {
	ranked := slices.Clone(r.Cards)
	slices.SortStableFunc(ranked, func(a, b Card) int {
		if a.Scored != b.Scored {
			if a.Scored {
				return -1
			}
			return 1
		}
		if !a.Scored {
			return 0
		}
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	return ranked
}

// PreviewGrid is the bounded preview strip of the candidate batch.
type PreviewGrid struct {
	Generation uint64          `json:"generation"`
	Total      int             `json:"total"`
	Completed  int             `json:"completed"`
	Ready      bool            `json:"ready"`
	Entries    []preview.Entry `json:"entries"`
	Overflow   int             `json:"overflow"` // files not shown, rendered as "+N"
}

// NewPreviewGrid shows at most limit entries of a settled snapshot. A
// non-positive limit uses the default grid size.
func NewPreviewGrid(s preview.Snapshot, limit int) PreviewGrid {
	if limit <= 0 {
		limit = constants.PreviewGridLimit
	}
	g := PreviewGrid{
		Generation: s.Generation,
		Total:      s.Total,
		Completed:  s.Completed,
		Ready:      s.Ready,
		Entries:    []preview.Entry{},
	}
	if s.Total > limit {
		g.Overflow = s.Total - limit
	}
	if s.Ready {
		g.Entries = s.Entries[:min(limit, len(s.Entries))]
	}
	return g
}
