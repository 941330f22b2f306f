package models

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse standard JSON envelope
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PaginatedResponse paged list envelope
type PaginatedResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Meta    Pagination  `json:"meta"`
}

// Pagination paging info
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_count"`
}

// SuccessResponse builds a success envelope
func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// ErrorResponse builds an error envelope
func ErrorResponse(message string, err error) APIResponse {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return APIResponse{
		Status:  StatusError,
		Message: message,
		Error:   errMsg,
	}
}

// DegradedResponse is an error envelope that still carries diagnostic data.
func DegradedResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Status:  StatusError,
		Message: message,
		Data:    data,
	}
}

// PageResponse wraps one page of items with its paging info.
func PageResponse(message string, items interface{}, meta Pagination) PaginatedResponse {
	return PaginatedResponse{
		Status:  StatusSuccess,
		Message: message,
		Data:    items,
		Meta:    meta,
	}
}

// NewPagination computes total pages for a page of results.
func NewPagination(page, pageSize, total int) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalCount: total,
	}
}
