// Package subscription defines agent subscription statuses, plans and plan limits.
package subscription

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a subscription. Only StatusActive admits requests.
type Status string

// Subscription statuses.
const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusTrial     Status = "trial"
)

// Plan is a pricing tier.
type Plan string

// Subscription plans.
const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Unlimited marks a limit with no ceiling.
const Unlimited = -1

var (
	// ErrUnknownStatus is returned when parsing an unrecognized status.
	ErrUnknownStatus = errors.New("unknown subscription status")
	// ErrUnknownPlan is returned when parsing an unrecognized plan.
	ErrUnknownPlan = errors.New("unknown subscription plan")
)

// Limits are the usage ceilings of a plan.
type Limits struct {
	QueriesPerDay int `json:"queries_per_day"`
	Documents     int `json:"documents"`
	MaxFileSize   int `json:"max_file_size"`
}

var planLimits = map[Plan]Limits{
	PlanFree:       {QueriesPerDay: 100, Documents: 10, MaxFileSize: 1 << 20},
	PlanBasic:      {QueriesPerDay: 1000, Documents: 100, MaxFileSize: 10 << 20},
	PlanPro:        {QueriesPerDay: 5000, Documents: 1000, MaxFileSize: 50 << 20},
	PlanEnterprise: {QueriesPerDay: Unlimited, Documents: Unlimited, MaxFileSize: 100 << 20},
}

// LimitsFor returns the limits of plan, falling back to the free plan.
func LimitsFor(plan Plan) Limits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusInactive, StatusSuspended, StatusTrial:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// ParsePlan validates a plan string.
func ParsePlan(s string) (Plan, error) {
	p := Plan(s)
	if _, ok := planLimits[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, s)
	}
	return p, nil
}

// Subscription is an agent's current status and plan.
type Subscription struct {
	status Status
	plan   Plan
}

// New creates a subscription record.
func New(status Status, plan Plan) Subscription {
	return Subscription{status: status, plan: plan}
}

// Default is the subscription of an agent with no record: active on the free plan.
func Default() Subscription {
	return Subscription{status: StatusActive, plan: PlanFree}
}

// Status returns the subscription status.
func (s Subscription) Status() Status { return s.status }

// Plan returns the subscription plan.
func (s Subscription) Plan() Plan { return s.plan }

// Active reports whether requests are admitted.
func (s Subscription) Active() bool { return s.status == StatusActive }

// Limits returns the limits of the subscription's plan.
func (s Subscription) Limits() Limits { return LimitsFor(s.plan) }

// WithStatus returns a copy with a different status.
func (s Subscription) WithStatus(status Status) Subscription {
	s.status = status
	return s
}
