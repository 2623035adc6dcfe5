package core

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Batch and segment bounds enforced before dispatch.
const (
	MinBatchSize    = 1
	MaxBatchSize    = 500
	MinSegmentCount = 1
	MaxSegmentCount = 16
)

// ValidateBatchSize checks that a batch mutation carries 1 to 500 items.
func ValidateBatchSize(ns Namespace, n int) *Error {
	msg := fmt.Sprintf("batch size must be between %d and %d items, got %d", MinBatchSize, MaxBatchSize, n)
	err := validation.Validate(n,
		validation.Required.Error(msg),
		validation.Min(MinBatchSize).Error(msg),
		validation.Max(MaxBatchSize).Error(msg),
	)
	if err != nil {
		return NewValidationError(ns, err.Error())
	}
	return nil
}

// segmentBounds is the validated view of a parallel scan request.
type segmentBounds struct {
	SegmentCount *int `json:"segmentCount"`
	SegmentIndex *int `json:"segmentIndex"`
}

// ValidateSegments checks parallel scan parameters. count, when set, must be
// in [1, 16]; index, when set, requires count and must be in [0, count).
func ValidateSegments(ns Namespace, count, index *int) *Error {
	if index != nil && count == nil {
		return NewValidationError(ns, "segmentIndex requires segmentCount")
	}

	b := segmentBounds{SegmentCount: count, SegmentIndex: index}
	countMsg := fmt.Sprintf("must be between %d and %d", MinSegmentCount, MaxSegmentCount)
	rules := []*validation.FieldRules{
		validation.Field(&b.SegmentCount,
			validation.When(count != nil, validation.Required.Error(countMsg)),
			validation.Min(MinSegmentCount).Error(countMsg),
			validation.Max(MaxSegmentCount).Error(countMsg),
		),
	}
	if count != nil && index != nil {
		indexMsg := fmt.Sprintf("must be between 0 and %d", *count-1)
		rules = append(rules, validation.Field(&b.SegmentIndex,
			validation.Min(0).Error(indexMsg),
			validation.Max(*count-1).Error(indexMsg),
		))
	}

	if err := validation.ValidateStruct(&b, rules...); err != nil {
		return NewValidationError(ns, err.Error())
	}
	return nil
}
