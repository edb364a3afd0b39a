package http

import (
	"context"

	"github.com/google/uuid"

	"curridata/internal/store"
)

// DownloadJobStore is the subset of store operations the download
// endpoints need. Narrowed to an interface so handler tests can inject
// fakes via c.Locals.
type DownloadJobStore interface {
	CreateDownloadJob(ctx context.Context, id uuid.UUID, clientIP, url, format string) error
	GetDownloadJob(ctx context.Context, id uuid.UUID) (store.DownloadJob, error)
}

// Dispatcher schedules a submitted job for background execution.
type Dispatcher interface {
	Dispatch(jobID uuid.UUID, url, format string)
}

// ErrorResponse is the generic error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
}

// MessageResponse acknowledges a successful mutation.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DownloadRequest is the submit-download body.
type DownloadRequest struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

// SubmitDownloadResponse returns the handle for polling.
type SubmitDownloadResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	JobID   string `json:"job_id,omitempty"`
}

// DownloadStatusResponse reports the latest persisted job state.
type DownloadStatusResponse struct {
	Success  bool   `json:"success"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
	Status   string `json:"status,omitempty"`
	Progress int32  `json:"progress"`
}

// DeptRequest is the create/update body for a department.
type DeptRequest struct {
	College      string `json:"college"`
	CollegeShort string `json:"collegeShort"`
	Dept         string `json:"dept"`
	DeptShort    string `json:"deptShort"`
	StudyType    string `json:"studyType"`
	AgentName    string `json:"agentName"`
	AgentExt     string `json:"agentExt"`
	AgentEmail   string `json:"agentEmail"`
	CAgentID     *int32 `json:"cagentId"`
}

// DeptItem is one department in list responses, joined with its
// curriculum-office agent.
type DeptItem struct {
	ID           int32  `json:"id"`
	College      string `json:"college"`
	CollegeShort string `json:"collegeShort"`
	Dept         string `json:"dept"`
	DeptShort    string `json:"deptShort"`
	StudyType    string `json:"studyType"`
	AgentName    string `json:"agentName"`
	AgentExt     string `json:"agentExt"`
	AgentEmail   string `json:"agentEmail"`
	CAgentID     *int32 `json:"cagentId,omitempty"`
	CAgentName   string `json:"cagentName,omitempty"`
	CAgentExt    string `json:"cagentExt,omitempty"`
	CAgentEmail  string `json:"cagentEmail,omitempty"`
}

type ListDeptsResponse struct {
	Success bool       `json:"success"`
	Code    string     `json:"code,omitempty"`
	Error   string     `json:"error,omitempty"`
	Depts   []DeptItem `json:"depts"`
}

// CAgentRequest is the create/update body for a curriculum-office agent.
type CAgentRequest struct {
	Name  string `json:"name"`
	Ext   string `json:"ext"`
	Email string `json:"email"`
}

type CAgentItem struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Ext   string `json:"ext"`
	Email string `json:"email"`
}

type ListCAgentsResponse struct {
	Success bool         `json:"success"`
	Code    string       `json:"code,omitempty"`
	Error   string       `json:"error,omitempty"`
	Agents  []CAgentItem `json:"agents"`
}

// ClassDeptMapRequest is the create/update body for a class mapping.
type ClassDeptMapRequest struct {
	Class     string `json:"class"`
	DeptShort string `json:"deptShort"`
}

type ClassDeptMapItem struct {
	ID        int32  `json:"id"`
	Class     string `json:"class"`
	DeptShort string `json:"deptShort"`
}

type ListClassDeptMapsResponse struct {
	Success  bool               `json:"success"`
	Code     string             `json:"code,omitempty"`
	Error    string             `json:"error,omitempty"`
	Mappings []ClassDeptMapItem `json:"mappings"`
}

// DatasetItem is one row of the combined class/department/agent dataset.
type DatasetItem struct {
	Class        string `json:"class"`
	DeptShort    string `json:"deptShort"`
	Dept         string `json:"dept,omitempty"`
	College      string `json:"college,omitempty"`
	CollegeShort string `json:"collegeShort,omitempty"`
	StudyType    string `json:"studyType,omitempty"`
	AgentName    string `json:"agentName,omitempty"`
	AgentExt     string `json:"agentExt,omitempty"`
	AgentEmail   string `json:"agentEmail,omitempty"`
	CAgentName   string `json:"cagentName,omitempty"`
	CAgentExt    string `json:"cagentExt,omitempty"`
	CAgentEmail  string `json:"cagentEmail,omitempty"`
}

type DatasetResponse struct {
	Success bool          `json:"success"`
	Code    string        `json:"code,omitempty"`
	Error   string        `json:"error,omitempty"`
	Rows    []DatasetItem `json:"rows"`
}
