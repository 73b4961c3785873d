package types

import (
	"fmt"

	"github.com/samber/lo"
)

// ScheduleStatus represents the schedule_status column of
// subscription_invoice_schedule rows
type ScheduleStatus string

const (
	ScheduleStatusPending ScheduleStatus = "PENDING"
	ScheduleStatusDue     ScheduleStatus = "DUE"
	ScheduleStatusBilled  ScheduleStatus = "BILLED"
	ScheduleStatusFailed  ScheduleStatus = "FAILED"
)

func (s ScheduleStatus) String() string {
	return string(s)
}

func (s ScheduleStatus) Validate() error {
	allowed := []ScheduleStatus{
		ScheduleStatusPending,
		ScheduleStatusDue,
		ScheduleStatusBilled,
		ScheduleStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid schedule status: %s", s)
	}
	return nil
}

// InvoiceStatus represents the invoice statuses eligible for billing selection
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusDue     InvoiceStatus = "DUE"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusPending,
		InvoiceStatusDue,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid invoice status: %s", s)
	}
	return nil
}
