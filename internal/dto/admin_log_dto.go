package dto

import (
	"time"
)

type LogListResponse struct {
	Id        string    `json:"id"` // MD5 of the log line, not a UUID
	Level     string    `json:"level"`
	Module    string    `json:"module"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type LogDetailResponse struct {
	LogListResponse
	Details map[string]interface{} `json:"details"`
}

type LogPageResponse struct {
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Items []*LogListResponse `json:"items"`
}
