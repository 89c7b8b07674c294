package domain

// FieldSpec declares one column of a screen.
type FieldSpec struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
	// Path is a dotted field path. Ignored when Template is set.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// Template composes several fields, e.g. "{type}( {sub_type} )".
	Template    string        `yaml:"template,omitempty" json:"template,omitempty"`
	Filter      FilterVariant `yaml:"filter,omitempty" json:"filter,omitempty"`
	SortBy      string        `yaml:"sort_by,omitempty" json:"sortBy,omitempty"`
	IncludeNull bool          `yaml:"include_null,omitempty" json:"includeNull,omitempty"`
	SkipEmpty   bool          `yaml:"skip_empty,omitempty" json:"skipEmpty,omitempty"`
	Hidden      bool          `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Expand      *ExpandSpec   `yaml:"expand,omitempty" json:"expand,omitempty"`
}

// ExpandSpec turns every element of a list field into its own column.
type ExpandSpec struct {
	List  string `yaml:"list" json:"list"`
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// SourceKind enumerates where a screen's records come from.
type SourceKind string

const (
	SourceReport SourceKind = "report"
	SourceList   SourceKind = "list"
	SourceFile   SourceKind = "file"
)

// SourceSpec locates the records of a screen.
type SourceSpec struct {
	Kind       SourceKind `yaml:"kind" json:"kind"`
	ReportType string     `yaml:"report_type,omitempty" json:"reportType,omitempty"`
	Path       string     `yaml:"path,omitempty" json:"path,omitempty"`
}

// ScreenDefinition declares a filterable table screen.
type ScreenDefinition struct {
	Name         string      `yaml:"name" json:"name"`
	Title        string      `yaml:"title" json:"title"`
	Source       SourceSpec  `yaml:"source" json:"source"`
	Fields       []FieldSpec `yaml:"fields" json:"fields"`
	DefaultSort  string      `yaml:"default_sort,omitempty" json:"defaultSort,omitempty"`
	ExportPrefix string      `yaml:"export_prefix,omitempty" json:"exportPrefix,omitempty"`
}

// FetchParams are the user supplied inputs of a fetch.
type FetchParams struct {
	ReportDate string            `json:"report_date,omitempty"`
	Query      map[string]string `json:"query,omitempty"`
}

// ResultStatus is the observable result state of a screen.
type ResultStatus string

const (
	ResultIdle     ResultStatus = "IDLE"
	ResultLoading  ResultStatus = "LOADING"
	ResultLoaded   ResultStatus = "LOADED"
	ResultNoRecord ResultStatus = "NO_RECORD"
	ResultError    ResultStatus = "ERROR"
)

// FetchResult is a completed exchange with a record source.
type FetchResult struct {
	StatusCode int
	Records    []Record
}
