package models

type Facility struct {
	ID              int64    `json:"id"`
	OrganizationID  int64    `json:"organization_id"`
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	ZipCode         string   `json:"zip_code"`
	PhoneNumber     string   `json:"phone_number"`
	Email           string   `json:"email"`
	Description     string   `json:"description"`
	OpeningTime     string   `json:"opening_time"`
	ClosingTime     string   `json:"closing_time"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	ConsultationFee float64  `json:"consultation_fee"`
}
