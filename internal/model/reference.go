package model

// Customer is referenced by sales; its lifecycle is managed elsewhere.
type Customer struct {
	BaseModel
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Email string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone string `gorm:"type:varchar(20)" json:"phone,omitempty"`
}

// Store is a physical point of sale.
type Store struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Code    string `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Address string `gorm:"type:text" json:"address,omitempty"`
}
