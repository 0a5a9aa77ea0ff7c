package settings

import "time"

type SettingResponse struct {
	Key        string     `json:"key"`
	Value      string     `json:"value"`
	Kind       Kind       `json:"kind"`
	Default    string     `json:"default"`
	Overridden bool       `json:"overridden"`
	UpdatedBy  *string    `json:"updated_by,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}
