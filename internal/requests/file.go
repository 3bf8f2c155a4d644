package requests

import (
	"encoding/json"
)

// OptimizationSetting is the optimization part of an upload request. It
// accepts either an overrides object or the literal `false` to opt out of
// optimization entirely.
type OptimizationSetting struct {
	Disabled bool
	Width    *int  `json:"width"`
	Height   *int  `json:"height"`
	Quality  *int  `json:"quality"`
	Webp     *bool `json:"webp"`
}

func (o *OptimizationSetting) UnmarshalJSON(data []byte) error {
	var flag bool
	if err := json.Unmarshal(data, &flag); err == nil {
		o.Disabled = !flag
		return nil
	}

	type plain OptimizationSetting
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = OptimizationSetting(p)
	return nil
}

// UploadSettings is the optional settings bundle of an upload request.
type UploadSettings struct {
	Path         string               `json:"path"`
	Visibility   string               `json:"visibility" validate:"omitempty,oneof=public private"`
	Optimization *OptimizationSetting `json:"optimization"`
}

// UploadFileRequest represents an upload request. Exactly one of the file
// part, a single url or the url list is expected per request.
type UploadFileRequest struct {
	URL      string         `json:"url"`
	URLs     []string       `json:"urls"`
	Settings UploadSettings `json:"settings"`
}

// UpdateFileRequest represents a file metadata update request
type UpdateFileRequest struct {
	Name        *string `json:"name,omitempty"`
	Alt         *string `json:"alt,omitempty"`
	Description *string `json:"description,omitempty"`
	Visibility  *string `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

// FileSearchRequest represents a file search request
type FileSearchRequest struct {
	Query     string `json:"query,omitempty"`
	Mime      string `json:"mime,omitempty"`
	Page      int    `json:"page" validate:"omitempty,min=1"`
	Limit     int    `json:"limit" validate:"omitempty,min=1,max=100"`
	SortBy    string `json:"sortBy" validate:"omitempty,oneof=id created_at updated_at name kb"`
	SortOrder string `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
}
