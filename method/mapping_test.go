package method

import (
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ozzi82/method-flow-command-center/domain"
)

func TestContactFromCustomerFallbacks(t *testing.T) {
	cases := []struct {
		name     string
		customer Customer
		want     domain.Contact
	}{
		{
			name:     "full record",
			customer: Customer{RecordID: "123", Name: "Acme Anna", Email: "a@acme.test", Phone: "555", CompanyName: "Acme"},
			want:     domain.Contact{Name: "Acme Anna", Email: "a@acme.test", Phone: "555", Company: "Acme", MethodCRMID: "123"},
		},
		{
			name:     "first name fallback",
			customer: Customer{ID: "7", FirstName: "Anna", Company: "Acme"},
			want:     domain.Contact{Name: "Anna", Company: "Acme", MethodCRMID: "7"},
		},
		{
			name:     "last name fallback",
			customer: Customer{RecordID: "8", LastName: "Smith"},
			want:     domain.Contact{Name: "Smith", MethodCRMID: "8"},
		},
		{
			name:     "nameless record",
			customer: Customer{RecordID: "9"},
			want:     domain.Contact{Name: "Unknown", MethodCRMID: "9"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := contactFromCustomer(tc.customer)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestContactFromCustomerMissingID(t *testing.T) {
	_, err := contactFromCustomer(Customer{Name: "Ghost"})
	var invalid *InvalidResponseError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidResponseError, got %v", err)
	}
}

func TestFlexIDAcceptsNumbersAndStrings(t *testing.T) {
	var c Customer
	if err := sonic.Unmarshal([]byte(`{"RecordID":42,"Name":"n"}`), &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.externalID() != "42" {
		t.Fatalf("expected numeric id as string, got %q", c.externalID())
	}
	if err := sonic.Unmarshal([]byte(`{"RecordID":null,"Id":"abc"}`), &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.externalID() != "abc" {
		t.Fatalf("expected Id fallback, got %q", c.externalID())
	}
}

func TestActivityFromTask(t *testing.T) {
	due := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	task := domain.Task{
		Title:       "Call the customer",
		Description: "Follow up on quote",
		Status:      domain.StatusDone,
		Priority:    domain.PriorityHigh,
		DueDate:     &due,
	}
	a := activityFromTask(task)
	if a.Subject != task.Title || a.Description != task.Description {
		t.Fatalf("unexpected mapping: %+v", a)
	}
	if a.ActivityType != "Task" {
		t.Fatalf("expected Task activity type, got %q", a.ActivityType)
	}
	if a.Status != "Completed" || a.Priority != "High" {
		t.Fatalf("unexpected status/priority: %q %q", a.Status, a.Priority)
	}
	if a.DueDate == nil || *a.DueDate != "2026-03-14T09:00:00Z" {
		t.Fatalf("unexpected due date: %v", a.DueDate)
	}
}

func TestActivityFromTaskDefaults(t *testing.T) {
	a := activityFromTask(domain.Task{Title: "x"})
	if a.Status != "In Progress" || a.Priority != "Low" {
		t.Fatalf("unexpected defaults: %q %q", a.Status, a.Priority)
	}
	if a.DueDate != nil {
		t.Fatalf("expected nil due date, got %v", a.DueDate)
	}
	if b := activityFromTask(domain.Task{Status: domain.StatusProgress, Priority: domain.PriorityMedium}); b.Status != "In Progress" || b.Priority != "Normal" {
		t.Fatalf("unexpected mapping: %q %q", b.Status, b.Priority)
	}
}
