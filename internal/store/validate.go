package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStatus is returned when a status is not one of pending,
	// error, approved, rejected.
	ErrInvalidStatus = errors.New("status must be one of: pending, error, approved, rejected")

	// ErrApproveViaPublish is returned when an update tries to approve a
	// listing directly.
	ErrApproveViaPublish = errors.New("listings are approved by publishing them")

	// ErrInvalidPlan is returned when a plan is not credits or pro.
	ErrInvalidPlan = errors.New("plan must be one of: credits, pro")
)

// ValidateStatus checks that s is a known listing status.
func ValidateStatus(s string) error {
	switch s {
	case StatusPending, StatusError, StatusApproved, StatusRejected:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// ValidatePlan checks that p is a known account plan.
func ValidatePlan(p string) error {
	switch p {
	case PlanCredits, PlanPro:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPlan, p)
	}
}
