package models

import "time"

// Resource is a single bookable physical unit (a washing machine, a court).
// Resources are provisioned from config and read-only to the booking core;
// IsOperational=false models maintenance, resources are never deleted.
type Resource struct {
	ID            string    `yaml:"id" json:"id"`
	FacilityID    string    `yaml:"facility_id" json:"facility_id"`
	Name          string    `yaml:"name" json:"name"`
	Category      string    `yaml:"category" json:"category"`
	IsOperational bool      `yaml:"is_operational" json:"is_operational"`
	SortOrder     int64     `yaml:"sort_order" json:"sort_order"`
	CreatedAt     time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt     time.Time `yaml:"updated_at" json:"updated_at"`
}

// ResourceStatus is the live dashboard view of one resource.
type ResourceStatus struct {
	Resource    Resource   `json:"resource"`
	LiveStatus  string     `json:"live_status"`
	CurrentUser string     `json:"current_user,omitempty"`
	AvailableAt *time.Time `json:"available_at,omitempty"`
	SlotsLeft   int        `json:"slots_left"`
}
