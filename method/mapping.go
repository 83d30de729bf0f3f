package method

import (
	"bytes"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ozzi82/method-flow-command-center/domain"
)

// flexID is a record identifier that the CRM serves either as a JSON number
// or as a string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n sonicNumber
	if err := sonic.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}

type sonicNumber string

func (n *sonicNumber) UnmarshalJSON(data []byte) error {
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return err
	}
	*n = sonicNumber(data)
	return nil
}

// Customer is the Method CRM Customer resource, reduced to the fields the
// dashboard maps. The CRM has shipped several field spellings over time,
// hence the fallback accessors.
type Customer struct {
	RecordID    flexID `json:"RecordID"`
	ID          flexID `json:"Id"`
	Name        string `json:"Name"`
	FirstName   string `json:"FirstName"`
	LastName    string `json:"LastName"`
	Email       string `json:"Email"`
	Phone       string `json:"Phone"`
	CompanyName string `json:"CompanyName"`
	Company     string `json:"Company"`
}

func (c Customer) externalID() string {
	if c.RecordID != "" {
		return string(c.RecordID)
	}
	return string(c.ID)
}

func (c Customer) displayName() string {
	for _, candidate := range []string{c.Name, c.FirstName, c.LastName} {
		if candidate != "" {
			return candidate
		}
	}
	return "Unknown"
}

func (c Customer) companyName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.Company
}

// contactFromCustomer maps a CRM customer into the local contact shape. A
// customer without a record identifier cannot be upsert-keyed and is an
// invalid-response error.
func contactFromCustomer(c Customer) (domain.Contact, error) {
	id := c.externalID()
	if id == "" {
		return domain.Contact{}, &InvalidResponseError{Reason: "customer record without RecordID or Id"}
	}
	return domain.Contact{
		Name:        c.displayName(),
		Email:       c.Email,
		Phone:       c.Phone,
		Company:     c.companyName(),
		MethodCRMID: id,
	}, nil
}

// Activity is the Method CRM Activity resource an exported task becomes.
type Activity struct {
	Subject      string  `json:"Subject"`
	Description  string  `json:"Description"`
	ActivityType string  `json:"ActivityType"`
	Status       string  `json:"Status"`
	Priority     string  `json:"Priority"`
	DueDate      *string `json:"DueDate"`
}

// Fixed translation tables between local task fields and CRM activity fields.
var (
	activityStatuses = map[domain.TaskStatus]string{
		domain.StatusTodo:     "In Progress",
		domain.StatusProgress: "In Progress",
		domain.StatusDone:     "Completed",
	}
	activityPriorities = map[domain.Priority]string{
		domain.PriorityLow:    "Low",
		domain.PriorityMedium: "Normal",
		domain.PriorityHigh:   "High",
	}
)

func activityFromTask(t domain.Task) Activity {
	a := Activity{
		Subject:      t.Title,
		Description:  t.Description,
		ActivityType: "Task",
		Status:       activityStatuses[t.Status],
		Priority:     activityPriorities[t.Priority],
	}
	if a.Status == "" {
		a.Status = "In Progress"
	}
	if a.Priority == "" {
		a.Priority = "Low"
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC().Format(time.RFC3339)
		a.DueDate = &due
	}
	return a
}
