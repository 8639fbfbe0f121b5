package models

import (
	"gorm.io/gorm"
)

// Order is one row of the downloaded order table.
type Order struct {
	Number  string
	Head    string
	Body    string
	Legs    int
	Address string
}

// Submission states reported by the submitter and stored in the ledger.
const (
	StatusSuccess          = "success"
	StatusExhaustedRetries = "exhausted_retries"
	StatusFailed           = "failed"
)

// OrderRecord is the ledger entry written after an order is processed
type OrderRecord struct {
	gorm.Model
	RunID          string `gorm:"index"`
	OrderNumber    string `gorm:"index"`
	Status         string
	Attempts       int
	Reloads        int
	ReceiptPath    string
	ScreenshotPath string
	Error          string
}

// TextLine represents a line of text with its position from OCR
type TextLine struct {
	Text   string
	X      int
	Y      int
	Width  int
	Height int
}
