package models

import "time"

// TenantSettings holds a company's messaging configuration and quota counters
type TenantSettings struct {
	TenantID     string    `json:"tenant_id" db:"tenant_id"`
	CompanyName  string    `json:"company_name" db:"company_name"`
	APIToken     string    `json:"-" db:"api_token"`
	PhoneNumber  string    `json:"phone_number" db:"phone_number"`
	DailyLimit   int       `json:"daily_limit" db:"daily_limit"`
	MonthlyLimit int       `json:"monthly_limit" db:"monthly_limit"`
	SentToday    int       `json:"sent_today" db:"sent_today"`
	SentMonth    int       `json:"sent_month" db:"sent_month"`
	Active       bool      `json:"active" db:"active"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DailyRemaining returns how many messages the tenant may still send today
func (t *TenantSettings) DailyRemaining() int {
	remaining := t.DailyLimit - t.SentToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MonthlyRemaining returns how many messages the tenant may still send this month
func (t *TenantSettings) MonthlyRemaining() int {
	remaining := t.MonthlyLimit - t.SentMonth
	if remaining < 0 {
		return 0
	}
	return remaining
}
