package history

import "encoding/json"

// Action names the kind of operation recorded in the history.
type Action string

const (
	ActionOrganize      Action = "organize"
	ActionOrganizeBatch Action = "organize_batch"
	ActionFixNaming     Action = "fix_naming"
	ActionDelete        Action = "delete"
	ActionUndelete      Action = "undelete"
	ActionConvert       Action = "convert"
)

// Entry represents a history entry.
type Entry struct {
	ID        int64          `json:"id"`
	BatchID   string         `json:"batchId,omitempty"`
	Action    Action         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

// CreateInput contains fields for creating a history entry.
type CreateInput struct {
	BatchID string
	Action  Action
	Details map[string]any
}

// ListOptions contains options for listing history.
type ListOptions struct {
	Action   string
	Page     int
	PageSize int
}

// ListResponse contains paginated history results.
type ListResponse struct {
	Items      []*Entry `json:"items"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalCount int64    `json:"totalCount"`
	TotalPages int      `json:"totalPages"`
}

// MoveData describes a file placed into a series folder.
type MoveData struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	NewName     string `json:"newName"`
	Series      string `json:"series"`
}

// RenameData describes an in-place rename applied from an audit proposal.
type RenameData struct {
	Series   string `json:"series"`
	Current  string `json:"current"`
	Expected string `json:"expected"`
}

// TrashData describes a soft delete or restore in a source directory.
type TrashData struct {
	Filename  string `json:"filename"`
	SourceDir string `json:"sourceDir"`
}

// ConvertData describes a CBR archive repackaged as CBZ.
type ConvertData struct {
	Source          string `json:"source"`
	Destination     string `json:"destination"`
	Pages           int    `json:"pages"`
	DeletedOriginal bool   `json:"deletedOriginal"`
}

// ToJSON converts a data struct to a JSON map.
func ToJSON(v any) (map[string]any, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}
	return result, nil
}
