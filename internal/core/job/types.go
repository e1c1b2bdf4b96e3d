package job

// Job is the stored record for one background job, kept in redis for the
// trigger surface to poll.
type Job struct {
	JobID   string    `json:"job_id"`
	Type    Type      `json:"type"`
	Status  Status    `json:"status"`
	Error   string    `json:"error,omitempty"`
	Results JobResult `json:"results,omitempty"`
}

type Type string

const (
	TypeCatalog Type = "catalog"
	TypeReport  Type = "report"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type JobResult struct {
	Catalog *CatalogResult `json:"catalog_result,omitempty"`
	Report  *ReportResult  `json:"report_result,omitempty"`
}

// CatalogResult records the outcome of one scrape batch. Stores holds one
// outcome per attempted store, in batch order; stores after the first
// failure are never attempted and never appear.
type CatalogResult struct {
	Files  []string       `json:"files,omitempty"`
	Stores []StoreOutcome `json:"stores,omitempty"`
}

type StoreOutcome struct {
	Store string `json:"store"`
	Code  string `json:"code"`
	File  string `json:"file,omitempty"`
	Error string `json:"error,omitempty"`
}

// ReportResult records the report pipeline outcome: generated artifacts per
// brand, the public folder link per published brand, and archive URLs when
// the artifact archive is configured.
type ReportResult struct {
	Artifacts map[string][]string `json:"artifacts,omitempty"`
	Links     map[string]string   `json:"links,omitempty"`
	Archive   map[string]string   `json:"archive,omitempty"`
}
