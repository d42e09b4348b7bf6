package domain

import (
	"slices"
	"time"
)

// OperationType is the category of a persisted calculation.
type OperationType string

const (
	OpBasic         OperationType = "basic"
	OpScientific    OperationType = "scientific"
	OpTrigonometric OperationType = "trigonometric"
	OpLogarithmic   OperationType = "logarithmic"
	OpExponential   OperationType = "exponential"
	OpStatistical   OperationType = "statistical"
)

// OperationTypes lists every accepted operation type.
var OperationTypes = []OperationType{
	OpBasic, OpScientific, OpTrigonometric, OpLogarithmic, OpExponential, OpStatistical,
}

// Valid reports whether t is an accepted operation type.
func (t OperationType) Valid() bool {
	return slices.Contains(OperationTypes, t)
}

// User is an account of the history service. The password hash never leaves the store layer.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Operation is one completed, persisted calculation.
type Operation struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	Expression    string        `json:"expression"`
	Result        string        `json:"result"`
	OperationType OperationType `json:"operation_type"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Pagination describes a page of a listing.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// NewPagination computes page metadata for a listing of total items.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// TypeCount is the number of operations of one type.
type TypeCount struct {
	OperationType OperationType `json:"operation_type"`
	Count         int           `json:"count"`
}

// DailyCount is the number of operations recorded on one day (YYYY-MM-DD).
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Statistics aggregates a user's history.
type Statistics struct {
	TotalOperations  int          `json:"totalOperations"`
	OperationsByType []TypeCount  `json:"operationsByType"`
	DailyOperations  []DailyCount `json:"dailyOperations"`
}
